package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	member telego.ChatMember
	err    error
	params *telego.GetChatMemberParams
}

func (f *fakeAPI) GetChatMember(_ context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error) {
	f.params = params
	return f.member, f.err
}

func TestFromChatMemberStatus(t *testing.T) {
	cases := map[string]Status{
		"creator":       StatusOwner,
		"administrator": StatusAdmin,
		"member":        StatusMember,
		"restricted":    StatusNotMember,
		"left":          StatusNotMember,
		"kicked":        StatusNotMember,
		"":              StatusNotMember,
	}
	for in, want := range cases {
		assert.Equal(t, want, FromChatMemberStatus(in), in)
	}
}

func TestStatusIsMember(t *testing.T) {
	assert.True(t, StatusMember.IsMember())
	assert.True(t, StatusAdmin.IsMember())
	assert.True(t, StatusOwner.IsMember())
	assert.False(t, StatusNotMember.IsMember())
}

func TestCheckMembershipQueriesChannel(t *testing.T) {
	api := &fakeAPI{member: &telego.ChatMemberMember{Status: "member"}}
	c := &Checker{API: api, Channel: "@testerantony"}

	status, err := c.CheckMembership(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, StatusMember, status)
	require.NotNil(t, api.params)
	assert.Equal(t, int64(42), api.params.UserID)
	assert.Equal(t, "@testerantony", api.params.ChatID.Username)
}

func TestCheckMembershipLeftUser(t *testing.T) {
	c := &Checker{API: &fakeAPI{member: &telego.ChatMemberLeft{Status: "left"}}, Channel: "@c"}

	status, err := c.CheckMembership(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, status.IsMember())
}

func TestCheckMembershipWrapsFailure(t *testing.T) {
	cause := errors.New("Bad Request: chat not found")
	c := &Checker{API: &fakeAPI{err: cause}, Channel: "@c"}

	_, err := c.CheckMembership(context.Background(), 7)

	var checkErr *CheckError
	require.True(t, errors.As(err, &checkErr))
	assert.Equal(t, int64(7), checkErr.UserID)
	assert.ErrorIs(t, err, cause)
}
