package bot

import (
	"fmt"
	"html"
	"strings"

	"referral-bot/internal/referral"
	"referral-bot/internal/store"
)

const (
	callbackVerifyJoin = "verify_join"
	callbackDashboard  = "dashboard"
)

func dashboardButtons() [][]Button {
	return [][]Button{{{Text: "📋 Dashboard", Data: callbackDashboard}}}
}

func RenderDashboard(d referral.Dashboard) Reply {
	var sb strings.Builder
	sb.WriteString("🎉 <b>Welcome to Referral Bot!</b>\n\n")
	fmt.Fprintf(&sb, "👤 <b>Username:</b> @%s\n", html.EscapeString(d.DisplayName))
	fmt.Fprintf(&sb, "🔗 <b>Your referral link:</b>\n%s\n\n", d.Link)
	fmt.Fprintf(&sb, "🏅 <b>Your points:</b> <b>%d</b>\n\n", d.Score)
	sb.WriteString("Commands:\n")
	for _, c := range d.Commands {
		fmt.Fprintf(&sb, "🔘 /%s - %s\n", c.Name, c.Description)
	}
	return Reply{Text: sb.String(), Buttons: dashboardButtons()}
}

// RenderGate turns a gate decision into the messages to send.
func RenderGate(v referral.GateView) []Reply {
	switch v.Kind {
	case referral.ViewDashboard:
		if v.Recheck {
			return []Reply{{Text: "✅ Verification succeeded!"}, RenderDashboard(v.Dashboard)}
		}
		return []Reply{RenderDashboard(v.Dashboard)}
	case referral.ViewJoinPrompt:
		return []Reply{{
			Text: "❗ Please join the channel first:\n" + v.JoinURL,
			Buttons: [][]Button{
				{{Text: "📢 Open channel", URL: v.JoinURL}},
				{{Text: "✅ I have joined the channel", Data: callbackVerifyJoin}},
			},
		}}
	case referral.ViewNotJoined:
		return []Reply{{
			Text:    "❌ You have not joined the channel yet.",
			Buttons: [][]Button{{{Text: "✅ I have joined the channel", Data: callbackVerifyJoin}}},
		}}
	default:
		return []Reply{{Text: "⚠️ Could not check channel membership. Please try again later."}}
	}
}

func RenderLink(link string) Reply {
	return Reply{Text: "🔗 Your referral link:\n" + link}
}

func RenderScore(score int64) Reply {
	return Reply{Text: fmt.Sprintf("🏅 Your points: <b>%d</b>", score)}
}

func RenderLeaderboard(entries []store.Entry) Reply {
	var sb strings.Builder
	sb.WriteString("🏆 <b>Leaderboard</b> 🏆\n\n")
	if len(entries) == 0 {
		sb.WriteString("No one is here yet. Share your link!")
		return Reply{Text: sb.String()}
	}
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. @%s - %d points\n", i+1, html.EscapeString(e.Username), e.Score)
	}
	return Reply{Text: sb.String()}
}

func RenderHelp() Reply {
	var sb strings.Builder
	sb.WriteString("🤖 I did not understand that. Try:\n")
	sb.WriteString("🔘 /start - open your dashboard\n")
	for _, c := range referral.HelpCommands {
		fmt.Fprintf(&sb, "🔘 /%s - %s\n", c.Name, c.Description)
	}
	return Reply{Text: sb.String()}
}

// RenderFailure is the generic apology sent when a handler fails.
func RenderFailure() Reply {
	return Reply{Text: "⚠️ Something went wrong. Please try again later."}
}
