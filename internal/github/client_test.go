package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sprintStart = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	sprintEnd   = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
)

// fakeGitHub routes GraphQL requests by the connection they ask for.
type fakeGitHub struct {
	t        *testing.T
	requests atomic.Int32
	repos    func(cursor string) string
	prs      func(repo string) string
	reviews  func(number int) string
	commits  func(repo string) string
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	assert.Equal(f.t, "Bearer ghp_test", r.Header.Get("Authorization"))

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("decode request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	cursor, _ := req.Variables["cursor"].(string)
	repo, _ := req.Variables["repo"].(string)

	var body string
	switch {
	case strings.Contains(req.Query, "organization("):
		body = f.repos(cursor)
	case strings.Contains(req.Query, "reviews("):
		n, _ := req.Variables["prNumber"].(float64)
		body = f.reviews(int(n))
	case strings.Contains(req.Query, "pullRequests("):
		body = f.prs(repo)
	case strings.Contains(req.Query, "history("):
		body = f.commits(repo)
	default:
		f.t.Errorf("unexpected query: %s", req.Query)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, handler http.Handler, maxPages int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{Token: "ghp_test", Org: "acme", Endpoint: srv.URL, MaxPages: maxPages}), srv
}

func TestFetchMissingCredentials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	tests := []struct {
		name string
		opts Options
	}{
		{"missing token", Options{Org: "acme", Endpoint: srv.URL}},
		{"missing org", Options{Token: "ghp_test", Endpoint: srv.URL}},
		{"blank token", Options{Token: "  ", Org: "acme", Endpoint: srv.URL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opts).Fetch(context.Background(), sprintStart, sprintEnd)
			assert.ErrorIs(t, err, schema.ErrConfiguration)
		})
	}
	assert.Zero(t, hits.Load())
}

func TestFetchFiltersAndPaginates(t *testing.T) {
	fake := &fakeGitHub{
		t: t,
		repos: func(cursor string) string {
			if cursor == "" {
				return `{"data":{"organization":{"repositories":{
					"pageInfo":{"hasNextPage":true,"endCursor":"r1"},
					"nodes":[
						{"name":"api","isArchived":false,"isFork":false,"pushedAt":"2026-01-10T09:00:00Z"},
						{"name":"stale","isArchived":false,"isFork":false,"pushedAt":"2025-12-01T09:00:00Z"},
						{"name":"attic","isArchived":true,"isFork":false,"pushedAt":"2026-01-10T09:00:00Z"},
						{"name":"fork","isArchived":false,"isFork":true,"pushedAt":"2026-01-10T09:00:00Z"},
						{"name":"empty","isArchived":false,"isFork":false,"pushedAt":null}
					]}}}}`
			}
			assert.Equal(t, "r1", cursor)
			return `{"data":{"organization":{"repositories":{
				"pageInfo":{"hasNextPage":false,"endCursor":null},
				"nodes":[{"name":"web","isArchived":false,"isFork":false,"pushedAt":"2026-01-07T00:30:00Z"}]}}}}`
		},
		prs: func(repo string) string {
			if repo != "api" {
				return `{"data":{"repository":{"pullRequests":{"pageInfo":{"hasNextPage":false},"nodes":[]}}}}`
			}
			return `{"data":{"repository":{"pullRequests":{"pageInfo":{"hasNextPage":false},"nodes":[
				{"number":3,"createdAt":"2026-01-21T10:00:00Z","mergedAt":null,"state":"OPEN","author":{"login":"alice"},"additions":1,"deletions":1},
				{"number":1,"createdAt":"2026-01-08T10:00:00Z","mergedAt":"2026-01-09T10:00:00Z","state":"MERGED","author":{"login":"alice"},"additions":120,"deletions":30},
				{"number":2,"createdAt":"2025-12-20T10:00:00Z","mergedAt":null,"state":"OPEN","author":null,"additions":5,"deletions":0}
			]}}}}`
		},
		reviews: func(number int) string {
			assert.Equal(t, 1, number)
			return `{"data":{"repository":{"pullRequest":{"reviews":{"pageInfo":{"hasNextPage":false},"nodes":[
				{"author":{"login":"bob"},"submittedAt":"2026-01-08T12:00:00Z","state":"APPROVED"},
				{"author":{"login":"carol"},"submittedAt":null,"state":"PENDING"}
			]}}}}}`
		},
		commits: func(repo string) string {
			if repo == "web" {
				return `{"data":{"repository":{"defaultBranchRef":null}}}`
			}
			return `{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"pageInfo":{"hasNextPage":false},"nodes":[
				{"author":{"user":{"login":"alice"},"name":"Alice A","date":"2026-01-08T08:00:00Z"},"additions":10,"deletions":2},
				{"author":{"user":null,"name":"Jane Doe","date":"2026-01-09T08:00:00Z"},"additions":3,"deletions":0},
				{"author":{"user":{"login":"alice"},"name":"Alice A","date":"2026-01-21T08:00:00Z"},"additions":99,"deletions":99}
			]}}}}}}`
		},
	}
	client, _ := newTestClient(t, fake, 10)

	raw, err := client.Fetch(context.Background(), sprintStart, sprintEnd)
	require.NoError(t, err)

	require.Len(t, raw.Repositories, 2)
	assert.Equal(t, "api", raw.Repositories[0].Name)
	assert.Equal(t, "web", raw.Repositories[1].Name)

	require.Len(t, raw.PullRequests, 1)
	pr := raw.PullRequests[0]
	assert.Equal(t, "api", pr.Repo)
	assert.Equal(t, 1, pr.Number)
	assert.Equal(t, "alice", pr.Author)
	require.NotNil(t, pr.MergedAt)
	require.Len(t, pr.Reviews, 2)
	assert.Equal(t, "bob", pr.Reviews[0].Author)
	assert.Nil(t, pr.Reviews[1].SubmittedAt)

	require.Len(t, raw.Commits, 2)
	assert.Equal(t, "alice", raw.Commits[0].Identity())
	assert.Equal(t, "", raw.Commits[1].Login)
	assert.Equal(t, "Jane Doe", raw.Commits[1].Identity())
}

func TestFetchStopsAtMaxPages(t *testing.T) {
	fake := &fakeGitHub{
		t: t,
		repos: func(cursor string) string {
			return `{"data":{"organization":{"repositories":{"pageInfo":{"hasNextPage":true,"endCursor":"next` + cursor + `"},"nodes":[]}}}}`
		},
	}
	client, _ := newTestClient(t, fake, 3)

	raw, err := client.Fetch(context.Background(), sprintStart, sprintEnd)
	require.NoError(t, err)
	assert.Empty(t, raw.Repositories)
	assert.Equal(t, int32(3), fake.requests.Load())
}

func TestFetchNullOrganization(t *testing.T) {
	fake := &fakeGitHub{
		t:     t,
		repos: func(string) string { return `{"data":{"organization":null}}` },
	}
	client, _ := newTestClient(t, fake, 10)

	raw, err := client.Fetch(context.Background(), sprintStart, sprintEnd)
	require.NoError(t, err)
	assert.Empty(t, raw.Repositories)
	assert.Equal(t, int32(1), fake.requests.Load())
}

func TestFetchErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     map[string]string
		body       string
		kind       error
		retryAfter time.Duration
	}{
		{name: "unauthorized", status: 401, body: `{"message":"Bad credentials"}`, kind: schema.ErrAuthentication},
		{name: "forbidden is rate limited", status: 403, header: map[string]string{"Retry-After": "30"}, kind: schema.ErrRateLimited, retryAfter: 30 * time.Second},
		{name: "too many requests", status: 429, kind: schema.ErrRateLimited},
		{name: "server error", status: 502, body: "bad gateway", kind: schema.ErrAPI},
		{name: "graphql errors", status: 200, body: `{"data":null,"errors":[{"message":"Could not resolve to an Organization"}]}`, kind: schema.ErrAPI},
		{name: "malformed json", status: 200, body: `{"data":`, kind: schema.ErrAPI},
		{name: "missing data", status: 200, body: `{}`, kind: schema.ErrAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client, _ := newTestClient(t, handler, 10)

			_, err := client.Fetch(context.Background(), sprintStart, sprintEnd)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var apiErr *schema.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.retryAfter, apiErr.RetryAfter)
			if tt.status != 200 {
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewClient(Options{Token: "ghp_test", Org: "acme", Endpoint: endpoint})
	_, err := client.Fetch(context.Background(), sprintStart, sprintEnd)
	assert.ErrorIs(t, err, schema.ErrAPI)
	assert.Equal(t, schema.CategoryUpstreamUnavailable, schema.ErrorCategory(err))
}

func TestFetchCancelledContext(t *testing.T) {
	fake := &fakeGitHub{t: t, repos: func(string) string { return `{"data":{"organization":null}}` }}
	client, _ := newTestClient(t, fake, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Fetch(ctx, sprintStart, sprintEnd)
	assert.ErrorIs(t, err, schema.ErrAPI)
}

func TestRetryAfterFromResetHeader(t *testing.T) {
	c := NewClient(Options{})
	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	h := http.Header{}
	h.Set("X-RateLimit-Reset", "1767874500") // 2026-01-08T12:15:00Z
	assert.Equal(t, 15*time.Minute, c.retryAfter(h))

	h.Set("Retry-After", "5")
	assert.Equal(t, 5*time.Second, c.retryAfter(h))

	assert.Zero(t, c.retryAfter(http.Header{}))
}

func TestIsRetryable(t *testing.T) {
	d, ok := IsRetryable(&schema.APIError{Kind: schema.ErrRateLimited, RetryAfter: time.Minute})
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	_, ok = IsRetryable(&schema.APIError{Kind: schema.ErrAPI})
	assert.False(t, ok)
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"first day midnight", time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), true},
		{"last day late", time.Date(2026, 1, 20, 23, 59, 0, 0, time.UTC), true},
		{"day before", time.Date(2026, 1, 6, 23, 59, 0, 0, time.UTC), false},
		{"day after", time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC), false},
		{"offset normalized to utc", time.Date(2026, 1, 20, 20, 0, 0, 0, time.FixedZone("PST", -8*3600)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inWindow(tt.t, sprintStart, sprintEnd))
		})
	}
}
