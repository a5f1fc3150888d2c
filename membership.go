package jazzhands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jazzband/jazzhands/internal/metrics"
)

// Outcome is what the index page renders after a visitor has been evaluated.
type Outcome struct {
	Login      string
	IsMember   bool
	Membership *TeamMembership
	OrgId      string
	NextUrl    string
}

type Gatekeeper struct {
	client     *Client
	org        string
	teamId     int64
	adminToken string
	orgUrl     string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type GatekeeperArgs struct {
	Client *Client
	Org    string
	TeamId int64
	// AdminToken is used for the membership check and the invite, never the visitor's token.
	AdminToken string
	WebUrl     string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

func NewGatekeeper(args GatekeeperArgs) (*Gatekeeper, error) {
	if args.Client == nil {
		return nil, fmt.Errorf("no client provided")
	}

	if args.Org == "" {
		return nil, fmt.Errorf("no organization provided")
	}

	if args.WebUrl == "" {
		args.WebUrl = DefaultWebURL
	}

	webUrl, err := parseBaseURL(args.WebUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid web url: %w", err)
	}

	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	return &Gatekeeper{
		client:     args.Client,
		org:        args.Org,
		teamId:     args.TeamId,
		adminToken: args.AdminToken,
		orgUrl:     resolve(webUrl, args.Org),
		logger:     args.Logger.With("component", "gatekeeper", "org", args.Org),
		metrics:    args.Metrics,
	}, nil
}

// Admit evaluates the visitor owning userToken and invites them to the team if
// they are not yet an organization member. It returns ErrNoLogin when the
// visitor cannot be identified and ErrAccessDenied when they have no verified
// email address. Failures of the membership check and of the invite are not
// returned; they surface as IsMember=false and a nil Membership.
func (g *Gatekeeper) Admit(ctx context.Context, userToken string) (*Outcome, error) {
	if userToken == "" {
		return nil, fmt.Errorf("no user token provided")
	}

	user, err := g.client.CurrentUser(ctx, userToken)
	if err != nil {
		g.metrics.RecordOutcome("error")
		return nil, fmt.Errorf("%w: %w", ErrNoLogin, err)
	}

	if user.Login == "" {
		g.metrics.RecordOutcome("error")
		return nil, ErrNoLogin
	}

	logger := g.logger.With("login", user.Login)

	verified, err := g.hasVerifiedEmail(ctx, userToken)
	if err != nil {
		g.metrics.RecordOutcome("error")
		return nil, fmt.Errorf("could not list emails for %s: %w", user.Login, err)
	}

	if !verified {
		logger.Info("denying user without verified email")
		g.metrics.RecordOutcome("forbidden")
		return nil, ErrAccessDenied
	}

	outcome := &Outcome{
		Login:    user.Login,
		IsMember: g.isMember(ctx, logger, user.Login),
		OrgId:    g.org,
		NextUrl:  g.orgUrl,
	}

	if outcome.IsMember {
		g.metrics.RecordOutcome("member")
		return outcome, nil
	}

	membership, err := g.client.AddTeamMembership(ctx, g.teamId, user.Login, g.adminToken)
	if err != nil {
		logger.Warn("failed to add user to team", "team", g.teamId, "err", err)
		g.metrics.RecordOutcome("invite_failed")
		return outcome, nil
	}

	logger.Info("added user to team", "team", g.teamId, "state", membership.State)
	g.metrics.RecordOutcome("invited")
	outcome.Membership = membership

	return outcome, nil
}

func (g *Gatekeeper) hasVerifiedEmail(ctx context.Context, userToken string) (bool, error) {
	emails, err := g.client.Emails(ctx, userToken)
	if err != nil {
		return false, err
	}

	for _, email := range emails {
		if email.Verified {
			return true, nil
		}
	}

	return false, nil
}

// isMember treats every provider failure as "not a member"; only a 404 is an
// expected answer, anything else is logged.
func (g *Gatekeeper) isMember(ctx context.Context, logger *slog.Logger, login string) bool {
	err := g.client.CheckOrgMembership(ctx, g.org, login, g.adminToken)
	if err == nil {
		return true
	}

	if !IsNotFound(err) {
		logger.Warn("membership check failed, treating user as non-member", "err", err)
	}

	return false
}
