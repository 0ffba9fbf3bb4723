// Package membership checks whether a user belongs to the configured
// Telegram channel.
package membership

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"referral-bot/internal/metrics"
)

type Status string

const (
	StatusMember    Status = "member"
	StatusAdmin     Status = "admin"
	StatusOwner     Status = "owner"
	StatusNotMember Status = "not_member"
)

// IsMember reports whether the status passes the membership gate.
func (s Status) IsMember() bool {
	return s == StatusMember || s == StatusAdmin || s == StatusOwner
}

// CheckError means the platform could not answer the membership query.
type CheckError struct {
	UserID int64
	Err    error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("membership check for %d: %v", e.UserID, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

type chatMemberGetter interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// Checker queries getChatMember for a single channel.
type Checker struct {
	API     chatMemberGetter
	Channel string // @username of the channel
}

func NewChecker(bot *telego.Bot, channel string) *Checker {
	return &Checker{API: bot, Channel: channel}
}

func (c *Checker) CheckMembership(ctx context.Context, userID int64) (Status, error) {
	member, err := c.API.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.Username(c.Channel),
		UserID: userID,
	})
	if err != nil {
		metrics.RecordMembershipCheck("error")
		return StatusNotMember, &CheckError{UserID: userID, Err: err}
	}
	if member == nil {
		metrics.RecordMembershipCheck("error")
		return StatusNotMember, &CheckError{UserID: userID, Err: fmt.Errorf("empty chat member response")}
	}

	status := FromChatMemberStatus(member.MemberStatus())
	metrics.RecordMembershipCheck(string(status))
	return status, nil
}

// FromChatMemberStatus maps Telegram's chat member status. Restricted, left
// and kicked users do not count as members.
func FromChatMemberStatus(status string) Status {
	switch status {
	case "creator":
		return StatusOwner
	case "administrator":
		return StatusAdmin
	case "member":
		return StatusMember
	default:
		return StatusNotMember
	}
}
