package bot

import (
	"context"

	"referral-bot/internal/referral"
)

// Handlers binds the bot commands to the referral coordinator.
type Handlers struct {
	Coordinator *referral.Coordinator
}

// Routes builds the router for every command and callback the bot answers.
func (h *Handlers) Routes() *Router {
	r := NewRouter(h.fallback)
	r.Command("start", h.start)
	r.Command("link", h.link)
	r.Command("score", h.score)
	r.Command("leaderboard", h.leaderboard)
	r.Callback(callbackVerifyJoin, h.verifyJoin)
	r.Callback(callbackDashboard, h.dashboard)
	return r
}

func (h *Handlers) start(ctx context.Context, ev Event) ([]Reply, error) {
	view, err := h.Coordinator.Start(ctx, ev.UserID, ev.Username, referral.StartArgument(ev.Text))
	if err != nil {
		return nil, err
	}
	return RenderGate(view), nil
}

func (h *Handlers) link(ctx context.Context, ev Event) ([]Reply, error) {
	link, err := h.Coordinator.ReferralLink(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	return []Reply{RenderLink(link)}, nil
}

func (h *Handlers) score(ctx context.Context, ev Event) ([]Reply, error) {
	score, err := h.Coordinator.Score(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}
	return []Reply{RenderScore(score)}, nil
}

func (h *Handlers) leaderboard(ctx context.Context, _ Event) ([]Reply, error) {
	entries, err := h.Coordinator.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return []Reply{RenderLeaderboard(entries)}, nil
}

func (h *Handlers) verifyJoin(ctx context.Context, ev Event) ([]Reply, error) {
	view, err := h.Coordinator.Recheck(ctx, ev.UserID, ev.Username)
	if err != nil {
		return nil, err
	}
	return RenderGate(view), nil
}

func (h *Handlers) dashboard(ctx context.Context, ev Event) ([]Reply, error) {
	d, err := h.Coordinator.Dashboard(ctx, ev.UserID, ev.Username)
	if err != nil {
		return nil, err
	}
	return []Reply{RenderDashboard(d)}, nil
}

// fallback answers unknown commands with help and ignores plain chatter
// and stale callback buttons.
func (h *Handlers) fallback(_ context.Context, ev Event) ([]Reply, error) {
	if ev.Kind != EventCommand {
		return nil, nil
	}
	return []Reply{RenderHelp()}, nil
}
