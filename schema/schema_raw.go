package schema

import "time"

// Repository is an organization repository as listed by GitHub.
type Repository struct {
	Name       string
	IsArchived bool
	IsFork     bool
	PushedAt   time.Time
}

// Review is a single pull request review.
type Review struct {
	Author      string
	SubmittedAt *time.Time // nil for pending reviews
	State       string
}

// PullRequest is a pull request along with the reviews it received.
type PullRequest struct {
	Repo      string
	Number    int
	Author    string
	CreatedAt time.Time
	MergedAt  *time.Time
	State     string
	Additions int
	Deletions int
	Reviews   []Review
}

// Commit is a default-branch commit. Login falls back to the git author name
// when the commit is not linked to a GitHub account.
type Commit struct {
	Login      string
	Name       string
	AuthoredAt time.Time
	Additions  int
	Deletions  int
}

// Identity returns the login used to attribute the commit.
func (c Commit) Identity() string {
	if c.Login != "" {
		return c.Login
	}
	return c.Name
}

// RawAggregate groups the raw events fetched for a sprint window.
// It is transient and never persisted.
type RawAggregate struct {
	Repositories []Repository
	PullRequests []PullRequest
	Commits      []Commit
}
