package referral

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenPrefix starts every referral token.
const TokenPrefix = "ref_"

// EncodeToken builds the start parameter that credits telegramID.
func EncodeToken(telegramID int64) string {
	return TokenPrefix + strconv.FormatInt(telegramID, 10)
}

// DecodeToken extracts the referrer from a start parameter. Anything that
// is not "ref_" followed by a positive decimal id yields false.
func DecodeToken(raw string) (int64, bool) {
	digits, ok := strings.CutPrefix(raw, TokenPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// StartArgument returns the first argument of a "/start <arg>" message.
func StartArgument(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Link is the t.me deep link that opens the bot with the user's token.
func Link(botUsername string, telegramID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, EncodeToken(telegramID))
}
