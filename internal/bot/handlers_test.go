package bot

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-bot/internal/logging"
	"referral-bot/internal/membership"
	"referral-bot/internal/referral"
	"referral-bot/internal/store"
)

// memStore is a map-backed stand-in for the gorm store.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*store.Entry
	order  []int64
	failed error
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*store.Entry{}}
}

func (m *memStore) Register(_ context.Context, id int64, name string, referrerID *int64) (store.RegisterResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return store.RegisterResult{}, m.failed
	}
	if _, ok := m.users[id]; ok {
		return store.RegisterResult{}, nil
	}
	m.users[id] = &store.Entry{TelegramID: id, Username: name}
	m.order = append(m.order, id)
	res := store.RegisterResult{Created: true}
	if referrerID != nil {
		if ref, ok := m.users[*referrerID]; ok {
			ref.Score++
			res.Credited = true
		}
	}
	return res, nil
}

func (m *memStore) Score(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return 0, m.failed
	}
	if u, ok := m.users[id]; ok {
		return u.Score, nil
	}
	return 0, nil
}

func (m *memStore) Leaderboard(_ context.Context, limit int) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed != nil {
		return nil, m.failed
	}
	out := make([]store.Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.users[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type oracleFunc func() (membership.Status, error)

func (f oracleFunc) CheckMembership(context.Context, int64) (membership.Status, error) { return f() }

type fixedHandle struct{}

func (fixedHandle) SelfHandle(context.Context) (string, error) { return "ref_test_bot", nil }

func newTestRouter(s *memStore, status *membership.Status) *Router {
	c := &referral.Coordinator{
		Store:           s,
		Oracle:          oracleFunc(func() (membership.Status, error) { return *status, nil }),
		Handles:         fixedHandle{},
		Log:             logging.Discard(),
		JoinURL:         "https://t.me/testerantony",
		LeaderboardSize: 10,
	}
	return (&Handlers{Coordinator: c}).Routes()
}

func command(userID int64, username, text string) Event {
	name, args, _ := ParseCommand(text)
	return Event{Kind: EventCommand, UserID: userID, ChatID: userID, Username: username, Name: name, Args: args, Text: text}
}

func callback(userID int64, username, data string) Event {
	return Event{Kind: EventCallback, UserID: userID, ChatID: userID, Username: username, Name: data}
}

func TestStartAsMemberShowsDashboard(t *testing.T) {
	status := membership.StatusMember
	r := newTestRouter(newMemStore(), &status)

	route, replies, err := r.Dispatch(context.Background(), command(1, "alice", "/start"))

	require.NoError(t, err)
	assert.Equal(t, "start", route)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "@alice")
	assert.Contains(t, replies[0].Text, "https://t.me/ref_test_bot?start=ref_1")
	assert.Contains(t, replies[0].Text, "<b>0</b>")
	assert.Equal(t, callbackDashboard, replies[0].Buttons[0][0].Data)
}

func TestStartAsOutsiderAsksToJoin(t *testing.T) {
	status := membership.StatusNotMember
	r := newTestRouter(newMemStore(), &status)

	_, replies, err := r.Dispatch(context.Background(), command(1, "", "/start"))

	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "https://t.me/testerantony")
	assert.Equal(t, "https://t.me/testerantony", replies[0].Buttons[0][0].URL)
	assert.Equal(t, callbackVerifyJoin, replies[0].Buttons[1][0].Data)
}

func TestVerifyJoinFlow(t *testing.T) {
	s := newMemStore()
	status := membership.StatusNotMember
	r := newTestRouter(s, &status)
	ctx := context.Background()

	_, _, err := r.Dispatch(ctx, command(1, "alice", "/start"))
	require.NoError(t, err)
	_, _, err = r.Dispatch(ctx, command(2, "bob", "/start ref_1"))
	require.NoError(t, err)

	_, replies, err := r.Dispatch(ctx, callback(2, "bob", callbackVerifyJoin))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "not joined")

	status = membership.StatusMember
	_, replies, err = r.Dispatch(ctx, callback(2, "bob", callbackVerifyJoin))
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "Verification succeeded")
	assert.Contains(t, replies[1].Text, "@bob")

	score, _ := s.Score(ctx, 1)
	assert.Equal(t, int64(1), score)
	assert.Len(t, s.order, 2)
}

func TestScoreLinkAndLeaderboardCommands(t *testing.T) {
	s := newMemStore()
	status := membership.StatusMember
	r := newTestRouter(s, &status)
	ctx := context.Background()

	_, _, _ = r.Dispatch(ctx, command(1, "alice", "/start"))
	_, _, _ = r.Dispatch(ctx, command(2, "bob", "/start ref_1"))
	_, _, _ = r.Dispatch(ctx, command(3, "carol", "/start ref_1"))

	_, replies, err := r.Dispatch(ctx, command(1, "alice", "/score"))
	require.NoError(t, err)
	assert.Equal(t, "🏅 Your points: <b>2</b>", replies[0].Text)

	_, replies, err = r.Dispatch(ctx, command(2, "bob", "/link"))
	require.NoError(t, err)
	assert.Equal(t, "🔗 Your referral link:\nhttps://t.me/ref_test_bot?start=ref_2", replies[0].Text)

	_, replies, err = r.Dispatch(ctx, command(2, "bob", "/leaderboard"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(replies[0].Text), "\n")
	assert.Equal(t, "1. @alice - 2 points", lines[2])
	assert.Equal(t, "2. @bob - 0 points", lines[3])
	assert.Equal(t, "3. @carol - 0 points", lines[4])
}

func TestDashboardCallbackSkipsGate(t *testing.T) {
	status := membership.StatusNotMember
	r := newTestRouter(newMemStore(), &status)

	_, replies, err := r.Dispatch(context.Background(), callback(4, "dave", callbackDashboard))

	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Welcome to Referral Bot")
}

func TestUnknownInput(t *testing.T) {
	status := membership.StatusMember
	r := newTestRouter(newMemStore(), &status)
	ctx := context.Background()

	route, replies, err := r.Dispatch(ctx, command(1, "alice", "/dance"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", route)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "/leaderboard")

	_, replies, err = r.Dispatch(ctx, Event{Kind: EventText, UserID: 1, Text: "hi there"})
	require.NoError(t, err)
	assert.Empty(t, replies)

	_, replies, err = r.Dispatch(ctx, callback(1, "alice", "buy_vpn"))
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestHandlerErrorsReachTransport(t *testing.T) {
	s := newMemStore()
	s.failed = &store.StorageError{Op: "score", Err: errors.New("connection reset")}
	status := membership.StatusMember
	r := newTestRouter(s, &status)

	_, _, err := r.Dispatch(context.Background(), command(1, "alice", "/score"))

	var storageErr *store.StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestRenderLeaderboardEmpty(t *testing.T) {
	reply := RenderLeaderboard(nil)
	assert.Contains(t, reply.Text, "No one is here yet")
}

func TestRenderGateMembershipUnavailable(t *testing.T) {
	replies := RenderGate(referral.GateView{Kind: referral.ViewMembershipUnavailable})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Could not check channel membership")
}
