package referral

// UnknownName stands in for users without a Telegram username.
const UnknownName = "unknown"

// DisplayName normalizes a possibly empty username.
func DisplayName(username string) string {
	if username == "" {
		return UnknownName
	}
	return username
}

type Command struct {
	Name        string
	Description string
}

// HelpCommands is the static command list shown on the dashboard.
var HelpCommands = []Command{
	{Name: "score", Description: "see your points"},
	{Name: "link", Description: "your referral link"},
	{Name: "leaderboard", Description: "top inviters"},
}

// Dashboard is everything the main screen shows a verified user.
type Dashboard struct {
	DisplayName string
	Link        string
	Score       int64
	Commands    []Command
}

// GateState is re-derived from a live membership query on every
// interaction; nothing about it is stored.
type GateState int

const (
	PendingJoin GateState = iota
	Verified
)

type ViewKind int

const (
	ViewDashboard ViewKind = iota
	ViewJoinPrompt
	ViewNotJoined
	ViewMembershipUnavailable
)

// GateView is what the transport renders after a gated interaction.
type GateView struct {
	Kind      ViewKind
	State     GateState
	Dashboard Dashboard // set for ViewDashboard
	JoinURL   string
	// Recheck is true when the view answers a membership re-check.
	Recheck bool
}
