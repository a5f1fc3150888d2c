package jazzhands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jazzband/jazzhands/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	DefaultAPIURL = "https://api.github.com/"
	DefaultWebURL = "https://github.com/"

	userAgent = "jazzhands"

	// responses larger than this are not needed for any call we make
	maxBodySize = 1 << 20
)

type Client struct {
	h       *http.Client
	oauth   *oauth2.Config
	apiUrl  *url.URL
	metrics *metrics.Metrics
}

type ClientArgs struct {
	H            *http.Client
	ClientId     string
	ClientSecret string
	RedirectUri  string
	Scopes       []string
	// AuthUrl and TokenUrl default to GitHub's OAuth endpoints.
	AuthUrl  string
	TokenUrl string
	ApiUrl   string
	Metrics  *metrics.Metrics
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.ClientId == "" {
		return nil, fmt.Errorf("no client id provided")
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	if args.ApiUrl == "" {
		args.ApiUrl = DefaultAPIURL
	}

	apiUrl, err := parseBaseURL(args.ApiUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}

	endpoint := github.Endpoint
	if args.AuthUrl != "" {
		endpoint.AuthURL = args.AuthUrl
	}
	if args.TokenUrl != "" {
		endpoint.TokenURL = args.TokenUrl
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &Client{
		h: args.H,
		oauth: &oauth2.Config{
			ClientID:     args.ClientId,
			ClientSecret: args.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  args.RedirectUri,
			Scopes:       args.Scopes,
		},
		apiUrl:  apiUrl,
		metrics: args.Metrics,
	}, nil
}

// AuthorizeURL returns the provider consent URL carrying the client id, scope and state.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for an access token. Every failure,
// including an absent code, is reported as an *AuthExchangeError.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", &AuthExchangeError{Reason: "no code provided"}
	}

	start := time.Now()
	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		status := 0
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		c.metrics.RecordProviderRequest("token_exchange", status, time.Since(start))
		return "", &AuthExchangeError{Reason: "provider rejected code", Err: err}
	}
	c.metrics.RecordProviderRequest("token_exchange", http.StatusOK, time.Since(start))

	if tok.AccessToken == "" {
		return "", &AuthExchangeError{Reason: "token response contained no access token"}
	}

	return tok.AccessToken, nil
}

// Get issues an authenticated GET against resource and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, resource, token string, out any) error {
	return c.do(ctx, "get", http.MethodGet, resource, token, out)
}

// Put issues an authenticated PUT against resource and decodes the JSON response into out.
func (c *Client) Put(ctx context.Context, resource, token string, out any) error {
	return c.do(ctx, "put", http.MethodPut, resource, token, out)
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, "user", http.MethodGet, "user", token, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) Emails(ctx context.Context, token string) ([]Email, error) {
	var emails []Email
	if err := c.do(ctx, "user_emails", http.MethodGet, "user/emails", token, &emails); err != nil {
		return nil, err
	}

	return emails, nil
}

// CheckOrgMembership returns nil when login is a member of org. A non-member
// comes back as a 404 *ProviderError.
func (c *Client) CheckOrgMembership(ctx context.Context, org, login, token string) error {
	resource := fmt.Sprintf("orgs/%s/members/%s", org, login)
	return c.do(ctx, "org_member", http.MethodGet, resource, token, nil)
}

func (c *Client) AddTeamMembership(ctx context.Context, teamId int64, login, token string) (*TeamMembership, error) {
	resource := fmt.Sprintf("teams/%s/memberships/%s", strconv.FormatInt(teamId, 10), login)

	var membership TeamMembership
	if err := c.do(ctx, "team_membership", http.MethodPut, resource, token, &membership); err != nil {
		return nil, err
	}

	return &membership, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.h)
}

func (c *Client) do(ctx context.Context, op, method, resource, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, resolve(c.apiUrl, resource), nil)
	if err != nil {
		return fmt.Errorf("error creating request for %s: %w", resource, err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	h := oauth2.NewClient(c.withHTTPClient(ctx), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	start := time.Now()
	resp, err := h.Do(req)
	if err != nil {
		c.metrics.RecordProviderRequest(op, 0, time.Since(start))
		return fmt.Errorf("could not get response from provider: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordProviderRequest(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return &ProviderError{
			Method:     method,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Body:       string(b),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("could not unmarshal %s response: %w", resource, err)
	}

	return nil
}
