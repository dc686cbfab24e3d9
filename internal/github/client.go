// Package github fetches organization activity from the GitHub GraphQL API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint = "https://api.github.com/graphql"
	defaultMaxPages = 10
	defaultTimeout  = 60 * time.Second
)

// Options configures a Client.
type Options struct {
	Token    string
	Org      string
	Endpoint string
	MaxPages int
	Timeout  time.Duration

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
}

// Client is a GitHub GraphQL API client. It never retries.
type Client struct {
	opts    Options
	http    *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

var _ contract.Fetcher = &Client{}

// NewClient creates a new GitHub GraphQL client. Missing credentials are
// reported by Fetch so that offline commands can still build a client.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{opts: opts, http: client, limiter: limiter, now: time.Now}
}

// Fetch retrieves repositories, pull requests with their reviews, and
// default-branch commits for the inclusive window [start, end].
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (*schema.RawAggregate, error) {
	if strings.TrimSpace(c.opts.Token) == "" {
		return nil, schema.NewConfigurationError("github token is required (set OPENDXI_GITHUB_TOKEN or GITHUB_TOKEN)")
	}
	if strings.TrimSpace(c.opts.Org) == "" {
		return nil, schema.NewConfigurationError("github organization is required (set OPENDXI_GITHUB_ORG)")
	}

	repos, err := c.activeRepositories(ctx, start)
	if err != nil {
		return nil, err
	}

	raw := &schema.RawAggregate{Repositories: repos}
	for _, repo := range repos {
		prs, err := c.pullRequests(ctx, repo.Name, start, end)
		if err != nil {
			return nil, err
		}
		raw.PullRequests = append(raw.PullRequests, prs...)

		commits, err := c.commits(ctx, repo.Name, start, end)
		if err != nil {
			return nil, err
		}
		raw.Commits = append(raw.Commits, commits...)

		logger.Debug().
			Str("repo", repo.Name).
			Int("pull_requests", len(prs)).
			Int("commits", len(commits)).
			Msg("fetched repository activity")
	}

	logger.Info().
		Str("org", c.opts.Org).
		Int("repositories", len(raw.Repositories)).
		Int("pull_requests", len(raw.PullRequests)).
		Int("commits", len(raw.Commits)).
		Msg("fetched organization activity")
	return raw, nil
}

// activeRepositories keeps repositories that are neither archived nor forks
// and were pushed to on or after start.
func (c *Client) activeRepositories(ctx context.Context, start time.Time) ([]schema.Repository, error) {
	nodes, err := fetchAllPages(ctx, c, reposQuery, map[string]any{"org": c.opts.Org},
		func(d *reposData) *connection[repoNode] {
			if d.Organization == nil {
				return nil
			}
			return d.Organization.Repositories
		})
	if err != nil {
		return nil, err
	}

	startDay := schema.DateOnly(start)
	var out []schema.Repository
	for _, n := range nodes {
		if n.IsArchived || n.IsFork || n.PushedAt == nil {
			continue
		}
		if schema.DateOnly(n.PushedAt.UTC()).Before(startDay) {
			continue
		}
		out = append(out, schema.Repository{Name: n.Name, IsArchived: n.IsArchived, IsFork: n.IsFork, PushedAt: *n.PushedAt})
	}
	return out, nil
}

func (c *Client) pullRequests(ctx context.Context, repo string, start, end time.Time) ([]schema.PullRequest, error) {
	nodes, err := fetchAllPages(ctx, c, pullRequestsQuery, map[string]any{"owner": c.opts.Org, "repo": repo},
		func(d *pullRequestsData) *connection[pullRequestNode] {
			if d.Repository == nil {
				return nil
			}
			return d.Repository.PullRequests
		})
	if err != nil {
		return nil, err
	}

	var out []schema.PullRequest
	for _, n := range nodes {
		if !inWindow(n.CreatedAt, start, end) {
			continue
		}
		reviews, err := c.reviews(ctx, repo, n.Number)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.PullRequest{
			Repo:      repo,
			Number:    n.Number,
			Author:    n.Author.login(),
			CreatedAt: n.CreatedAt,
			MergedAt:  n.MergedAt,
			State:     n.State,
			Additions: n.Additions,
			Deletions: n.Deletions,
			Reviews:   reviews,
		})
	}
	return out, nil
}

func (c *Client) reviews(ctx context.Context, repo string, number int) ([]schema.Review, error) {
	nodes, err := fetchAllPages(ctx, c, reviewsQuery, map[string]any{"owner": c.opts.Org, "repo": repo, "prNumber": number},
		func(d *reviewsData) *connection[reviewNode] {
			if d.Repository == nil || d.Repository.PullRequest == nil {
				return nil
			}
			return d.Repository.PullRequest.Reviews
		})
	if err != nil {
		return nil, err
	}

	out := make([]schema.Review, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, schema.Review{Author: n.Author.login(), SubmittedAt: n.SubmittedAt, State: n.State})
	}
	return out, nil
}

func (c *Client) commits(ctx context.Context, repo string, start, end time.Time) ([]schema.Commit, error) {
	since := schema.DateOnly(start).Format(time.RFC3339)
	nodes, err := fetchAllPages(ctx, c, commitsQuery, map[string]any{"owner": c.opts.Org, "repo": repo, "since": since},
		func(d *commitsData) *connection[commitNode] {
			r := d.Repository
			if r == nil || r.DefaultBranchRef == nil || r.DefaultBranchRef.Target == nil {
				return nil
			}
			return r.DefaultBranchRef.Target.History
		})
	if err != nil {
		return nil, err
	}

	var out []schema.Commit
	for _, n := range nodes {
		if !inWindow(n.Author.Date, start, end) {
			continue
		}
		out = append(out, schema.Commit{
			Login:      n.Author.User.login(),
			Name:       n.Author.Name,
			AuthoredAt: n.Author.Date,
			Additions:  n.Additions,
			Deletions:  n.Deletions,
		})
	}
	return out, nil
}

// fetchAllPages follows pageInfo cursors until the last page, MaxPages, or a null connection.
func fetchAllPages[D any, T any](ctx context.Context, c *Client, query string, vars map[string]any, extract func(*D) *connection[T]) ([]T, error) {
	var (
		all    []T
		cursor *string
	)
	for page := 0; page < c.opts.MaxPages; page++ {
		pageVars := make(map[string]any, len(vars)+1)
		for k, v := range vars {
			pageVars[k] = v
		}
		if cursor != nil {
			pageVars["cursor"] = *cursor
		}

		var data D
		if err := c.do(ctx, query, pageVars, &data); err != nil {
			return nil, err
		}
		conn := extract(&data)
		if conn == nil {
			break
		}
		all = append(all, conn.Nodes...)
		if !conn.PageInfo.HasNextPage {
			break
		}
		next := conn.PageInfo.EndCursor
		cursor = &next
	}
	return all, nil
}

// do executes one GraphQL request and decodes its data into out.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &schema.APIError{Kind: schema.ErrAPI, Message: "request pacing interrupted", Err: err}
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{Query: query, Variables: vars}).
		Post(c.opts.Endpoint)
	if err != nil {
		return &schema.APIError{Kind: schema.ErrAPI, Message: "request failed", Err: err}
	}
	if err := c.classifyStatus(resp); err != nil {
		return err
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return &schema.APIError{Kind: schema.ErrAPI, StatusCode: resp.StatusCode(), Message: "malformed response", Err: err}
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return &schema.APIError{Kind: schema.ErrAPI, StatusCode: resp.StatusCode(), Message: strings.Join(msgs, "; ")}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &schema.APIError{Kind: schema.ErrAPI, StatusCode: resp.StatusCode(), Message: "response has no data"}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &schema.APIError{Kind: schema.ErrAPI, StatusCode: resp.StatusCode(), Message: "malformed response data", Err: err}
	}
	return nil
}

// classifyStatus maps non-2xx responses onto the error taxonomy.
func (c *Client) classifyStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return &schema.APIError{Kind: schema.ErrAuthentication, StatusCode: code, Message: "check the github token"}
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		return &schema.APIError{
			Kind:       schema.ErrRateLimited,
			StatusCode: code,
			RetryAfter: c.retryAfter(resp.Header()),
			Message:    "github rate limit reached",
		}
	default:
		return &schema.APIError{Kind: schema.ErrAPI, StatusCode: code, Message: resp.Status()}
	}
}

// retryAfter reads Retry-After seconds, falling back to X-RateLimit-Reset epoch seconds.
func (c *Client) retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(c.now()); d > 0 {
				return d.Round(time.Second)
			}
		}
	}
	return 0
}

// inWindow reports whether t falls on a calendar day (UTC) within [start, end].
func inWindow(t, start, end time.Time) bool {
	day := schema.DateOnly(t.UTC())
	return !day.Before(schema.DateOnly(start)) && !day.After(schema.DateOnly(end))
}

// IsRetryable reports whether err is a rate limit that a caller could wait out.
func IsRetryable(err error) (time.Duration, bool) {
	var apiErr *schema.APIError
	if errors.As(err, &apiErr) && errors.Is(apiErr.Kind, schema.ErrRateLimited) {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
