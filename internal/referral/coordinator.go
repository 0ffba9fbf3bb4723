// Package referral turns inbound bot events into store operations and
// view models: token decoding, attribution, and the membership gate.
package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"referral-bot/internal/membership"
	"referral-bot/internal/metrics"
	"referral-bot/internal/store"
)

type Store interface {
	Register(ctx context.Context, telegramID int64, username string, referrerID *int64) (store.RegisterResult, error)
	Score(ctx context.Context, telegramID int64) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]store.Entry, error)
}

type MembershipOracle interface {
	CheckMembership(ctx context.Context, userID int64) (membership.Status, error)
}

// HandleResolver returns the bot's own public @username (without the @).
type HandleResolver interface {
	SelfHandle(ctx context.Context) (string, error)
}

type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]store.Entry, bool, error)
	Set(ctx context.Context, limit int, entries []store.Entry) error
	Invalidate(ctx context.Context) error
}

type Coordinator struct {
	Store   Store
	Oracle  MembershipOracle
	Handles HandleResolver
	Cache   LeaderboardCache // optional
	Log     logrus.FieldLogger

	JoinURL         string
	LeaderboardSize int
}

// Onboard registers the user, crediting the referrer named by rawArgs if
// it decodes, and returns the dashboard view.
func (c *Coordinator) Onboard(ctx context.Context, telegramID int64, username, rawArgs string) (Dashboard, error) {
	name := DisplayName(username)

	var referrerID *int64
	if id, ok := DecodeToken(rawArgs); ok {
		referrerID = &id
	}

	res, err := c.Store.Register(ctx, telegramID, name, referrerID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to register user %d: %w", telegramID, err)
	}
	metrics.RecordRegistration(res.Created, res.Credited)

	if res.Credited {
		c.Log.WithFields(logrus.Fields{"user_id": telegramID, "referrer_id": *referrerID}).Info("Referral credited")
		c.invalidateLeaderboard(ctx)
	} else if res.Created {
		c.Log.WithField("user_id", telegramID).Info("New user registered")
	}

	return c.Dashboard(ctx, telegramID, name)
}

// Dashboard builds the dashboard view without touching registration.
func (c *Coordinator) Dashboard(ctx context.Context, telegramID int64, username string) (Dashboard, error) {
	link, err := c.ReferralLink(ctx, telegramID)
	if err != nil {
		return Dashboard{}, err
	}

	score, err := c.Score(ctx, telegramID)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		DisplayName: DisplayName(username),
		Link:        link,
		Score:       score,
		Commands:    HelpCommands,
	}, nil
}

// HandleMembershipGate picks the view for a user whose membership is
// already known. It has no side effects.
func (c *Coordinator) HandleMembershipGate(isMember bool, dashboard Dashboard) GateView {
	if isMember {
		return GateView{Kind: ViewDashboard, State: Verified, Dashboard: dashboard}
	}
	return GateView{Kind: ViewJoinPrompt, State: PendingJoin, JoinURL: c.JoinURL}
}

// Start handles "/start [token]": register first, then gate on a live
// membership check. Credit is granted whether or not the user has joined.
func (c *Coordinator) Start(ctx context.Context, telegramID int64, username, rawArgs string) (GateView, error) {
	dashboard, err := c.Onboard(ctx, telegramID, username, rawArgs)
	if err != nil {
		return GateView{}, err
	}

	status, err := c.Oracle.CheckMembership(ctx, telegramID)
	if err != nil {
		return c.membershipUnavailable(telegramID, err)
	}
	return c.HandleMembershipGate(status.IsMember(), dashboard), nil
}

// Recheck answers the "I have joined" button. It never registers or credits.
func (c *Coordinator) Recheck(ctx context.Context, telegramID int64, username string) (GateView, error) {
	status, err := c.Oracle.CheckMembership(ctx, telegramID)
	if err != nil {
		return c.membershipUnavailable(telegramID, err)
	}
	if !status.IsMember() {
		return GateView{Kind: ViewNotJoined, State: PendingJoin, JoinURL: c.JoinURL, Recheck: true}, nil
	}

	dashboard, err := c.Dashboard(ctx, telegramID, username)
	if err != nil {
		return GateView{}, err
	}
	view := c.HandleMembershipGate(true, dashboard)
	view.Recheck = true
	return view, nil
}

func (c *Coordinator) Score(ctx context.Context, telegramID int64) (int64, error) {
	score, err := c.Store.Score(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to get score for %d: %w", telegramID, err)
	}
	return score, nil
}

func (c *Coordinator) ReferralLink(ctx context.Context, telegramID int64) (string, error) {
	handle, err := c.Handles.SelfHandle(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot username: %w", err)
	}
	return Link(handle, telegramID), nil
}

// Leaderboard serves from the cache when it can. Cache problems are logged
// and the store answers instead.
func (c *Coordinator) Leaderboard(ctx context.Context) ([]store.Entry, error) {
	limit := c.LeaderboardSize
	if limit <= 0 {
		limit = store.DefaultLeaderboardSize
	}

	if c.Cache != nil {
		entries, ok, err := c.Cache.Get(ctx, limit)
		if err != nil {
			c.Log.WithError(err).Warn("Leaderboard cache read failed")
		} else if ok {
			return entries, nil
		}
	}

	entries, err := c.Store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, limit, entries); err != nil {
			c.Log.WithError(err).Warn("Leaderboard cache write failed")
		}
	}
	return entries, nil
}

func (c *Coordinator) invalidateLeaderboard(ctx context.Context) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Invalidate(ctx); err != nil {
		c.Log.WithError(err).Warn("Leaderboard cache invalidation failed")
	}
}

// membershipUnavailable turns a membership check failure into the apology
// view. Any other error is returned unchanged.
func (c *Coordinator) membershipUnavailable(telegramID int64, err error) (GateView, error) {
	var checkErr *membership.CheckError
	if !errors.As(err, &checkErr) {
		return GateView{}, err
	}
	c.Log.WithError(checkErr.Err).WithField("user_id", telegramID).Warn("Membership check failed")
	return GateView{Kind: ViewMembershipUnavailable, State: PendingJoin, JoinURL: c.JoinURL}, nil
}
