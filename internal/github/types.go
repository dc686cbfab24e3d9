package github

import (
	"encoding/json"
	"time"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// connection is a GitHub GraphQL connection page.
type connection[T any] struct {
	PageInfo pageInfo `json:"pageInfo"`
	Nodes    []T      `json:"nodes"`
}

type actor struct {
	Login string `json:"login"`
}

type repoNode struct {
	Name       string     `json:"name"`
	IsArchived bool       `json:"isArchived"`
	IsFork     bool       `json:"isFork"`
	PushedAt   *time.Time `json:"pushedAt"`
}

type pullRequestNode struct {
	Number    int        `json:"number"`
	CreatedAt time.Time  `json:"createdAt"`
	MergedAt  *time.Time `json:"mergedAt"`
	State     string     `json:"state"`
	Author    *actor     `json:"author"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

type reviewNode struct {
	Author      *actor     `json:"author"`
	SubmittedAt *time.Time `json:"submittedAt"`
	State       string     `json:"state"`
}

type commitNode struct {
	Author struct {
		User *actor    `json:"user"`
		Name string    `json:"name"`
		Date time.Time `json:"date"`
	} `json:"author"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

type reposData struct {
	Organization *struct {
		Repositories *connection[repoNode] `json:"repositories"`
	} `json:"organization"`
}

type pullRequestsData struct {
	Repository *struct {
		PullRequests *connection[pullRequestNode] `json:"pullRequests"`
	} `json:"repository"`
}

type reviewsData struct {
	Repository *struct {
		PullRequest *struct {
			Reviews *connection[reviewNode] `json:"reviews"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

type commitsData struct {
	Repository *struct {
		DefaultBranchRef *struct {
			Target *struct {
				History *connection[commitNode] `json:"history"`
			} `json:"target"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

func (a *actor) login() string {
	if a == nil {
		return ""
	}
	return a.Login
}
