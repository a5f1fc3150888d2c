package jazzhands

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jazzband/jazzhands/internal/metrics"
	"github.com/jazzband/jazzhands/internal/testkit/githubfakes"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGatekeeper(t *testing.T, gh *githubfakes.GitHub, m *metrics.Metrics) *Gatekeeper {
	t.Helper()

	g, err := NewGatekeeper(GatekeeperArgs{
		Client:     newTestClient(t, gh, m),
		Org:        gh.Org,
		TeamId:     42,
		AdminToken: gh.AdminToken,
		Metrics:    m,
	})
	require.NoError(t, err)

	return g
}

var verified = []githubfakes.Email{
	{Email: "unverified@example.com"},
	{Email: "verified@example.com", Verified: true},
}

func TestAdmitExistingMember(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{Login: "member", Emails: verified})
	gh.AddMember("member")
	_, m := metrics.NewRegistry()
	g := newTestGatekeeper(t, gh, m)

	outcome, err := g.Admit(ctx, "tok")
	assert.NoError(err)
	assert.True(outcome.IsMember)
	assert.Nil(outcome.Membership)
	assert.Equal("jazzband", outcome.OrgId)
	assert.Equal("https://github.com/jazzband", outcome.NextUrl)
	assert.Empty(gh.Invites())
	assert.Equal(1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("member")))
}

func TestAdmitInvitesNonMember(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{Login: "newbie", Emails: verified})
	g := newTestGatekeeper(t, gh, nil)

	outcome, err := g.Admit(ctx, "tok")
	assert.NoError(err)
	assert.False(outcome.IsMember)
	assert.NotNil(outcome.Membership)
	assert.True(outcome.Membership.Pending())
	assert.Equal([]string{"/api/teams/42/memberships/newbie"}, gh.Invites())
}

func TestAdmitSwallowsInviteFailure(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{Login: "newbie", Emails: verified})
	gh.InviteStatus = http.StatusUnprocessableEntity
	g := newTestGatekeeper(t, gh, nil)

	outcome, err := g.Admit(ctx, "tok")
	assert.NoError(err)
	assert.False(outcome.IsMember)
	assert.Nil(outcome.Membership)
}

func TestAdmitTreatsMembershipCheckFailureAsNonMember(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{Login: "member", Emails: verified})
	gh.AddMember("member")
	gh.OrgMemberStatus = http.StatusBadGateway
	g := newTestGatekeeper(t, gh, nil)

	outcome, err := g.Admit(ctx, "tok")
	assert.NoError(err)
	assert.False(outcome.IsMember)
	// the add is idempotent provider side, so re-inviting a member is harmless
	assert.NotNil(outcome.Membership)
}

func TestAdmitDeniesWithoutVerifiedEmail(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{
		Login:  "member",
		Emails: []githubfakes.Email{{Email: "unverified@example.com"}},
	})
	gh.AddMember("member")
	g := newTestGatekeeper(t, gh, nil)

	_, err := g.Admit(ctx, "tok")
	assert.True(errors.Is(err, ErrAccessDenied))
	assert.Empty(gh.Invites())

	gh.AddUser("", "tok2", githubfakes.User{Login: "nobody"})
	_, err = g.Admit(ctx, "tok2")
	assert.True(errors.Is(err, ErrAccessDenied))
}

func TestAdmitFailsWithoutLogin(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "no-login", githubfakes.User{Emails: verified})
	g := newTestGatekeeper(t, gh, nil)

	_, err := g.Admit(ctx, "no-login")
	assert.True(errors.Is(err, ErrNoLogin))

	_, err = g.Admit(ctx, "revoked")
	assert.True(errors.Is(err, ErrNoLogin))

	var perr *ProviderError
	assert.True(errors.As(err, &perr))
	assert.Equal(http.StatusUnauthorized, perr.StatusCode)

	_, err = g.Admit(ctx, "")
	assert.Error(err)
}

func TestAdmitUsesAdminTokenForPrivilegedCalls(t *testing.T) {
	assert := assert.New(t)

	gh := githubfakes.New(t)
	gh.AddUser("", "tok", githubfakes.User{Login: "newbie", Emails: verified})

	g, err := NewGatekeeper(GatekeeperArgs{
		Client:     newTestClient(t, gh, nil),
		Org:        gh.Org,
		TeamId:     42,
		AdminToken: "not-the-admin",
	})
	assert.NoError(err)

	outcome, err := g.Admit(ctx, "tok")
	assert.NoError(err)
	assert.False(outcome.IsMember)
	assert.Nil(outcome.Membership)
	assert.Empty(gh.Invites())
}
