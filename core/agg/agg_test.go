package agg

import (
	"testing"
	"time"

	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
)

func at(day, hour int) time.Time {
	return time.Date(2026, 1, day, hour, 0, 0, 0, time.UTC)
}

func atPtr(day, hour int) *time.Time {
	t := at(day, hour)
	return &t
}

func TestGroupZeroFill(t *testing.T) {
	g := Group(&schema.RawAggregate{}, start, end)

	require.Len(t, g.Daily, 14)
	assert.Equal(t, "2026-01-07", g.Daily[0].Date)
	assert.Equal(t, "2026-01-20", g.Daily[13].Date)
	for i, day := range g.Daily {
		assert.Equal(t, start.AddDate(0, 0, i).Format(schema.DateLayout), day.Date)
		assert.Zero(t, day.Commits+day.PRsOpened+day.PRsMerged+day.ReviewsGiven+day.LinesAdded+day.LinesDeleted)
	}
	assert.Empty(t, g.Developers)
	assert.Equal(t, 10, g.WorkingDays())

	assert.Len(t, Group(nil, start, start).Daily, 1)
}

func TestGroupHolidayRegion(t *testing.T) {
	g := Group(nil, start, end, WithHolidayRegion("us"))
	// 2026-01-19 is Martin Luther King Jr. Day.
	assert.False(t, g.Daily[12].Workday)
	assert.Equal(t, 9, g.WorkingDays())

	assert.Equal(t, 10, Group(nil, start, end, WithHolidayRegion("XX")).WorkingDays())
}

func TestGroupCommits(t *testing.T) {
	raw := &schema.RawAggregate{Commits: []schema.Commit{
		{Login: "alice", AuthoredAt: at(8, 9), Additions: 10, Deletions: 2},
		{Login: "alice", AuthoredAt: at(8, 23), Additions: 5, Deletions: 5},
		{Name: "Jane Doe", AuthoredAt: at(9, 9), Additions: 1},
		{Login: "alice", AuthoredAt: at(6, 23), Additions: 100},
		{Login: "alice", AuthoredAt: at(21, 0), Additions: 100},
	}}
	g := Group(raw, start, end)

	alice := g.Developers["alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.Commits)
	assert.Equal(t, 15, alice.LinesAdded)
	assert.Equal(t, 7, alice.LinesDeleted)

	jane := g.Developers["Jane Doe"]
	require.NotNil(t, jane)
	assert.Equal(t, 1, jane.Commits)

	assert.Equal(t, 2, g.Daily[1].Commits)
	assert.Equal(t, 15, g.Daily[1].LinesAdded)
	assert.Equal(t, 1, g.Daily[2].Commits)
}

func TestGroupPullRequests(t *testing.T) {
	raw := &schema.RawAggregate{PullRequests: []schema.PullRequest{
		{
			Number: 1, Author: "alice", CreatedAt: at(8, 10), MergedAt: atPtr(9, 14),
			Additions: 100, Deletions: 50,
			Reviews: []schema.Review{
				{Author: "bob", SubmittedAt: atPtr(8, 14)},
				{Author: "bob", SubmittedAt: atPtr(8, 16)},
				{Author: "carol", SubmittedAt: nil},
				{Author: "carol", SubmittedAt: atPtr(21, 9)},
			},
		},
		{
			Number: 2, Author: "alice", CreatedAt: at(19, 10), MergedAt: atPtr(22, 10),
			Additions: 10, Deletions: 0,
		},
		{
			Number: 3, Author: "bob", CreatedAt: at(3, 10), MergedAt: atPtr(8, 10),
			Reviews: []schema.Review{{Author: "alice", SubmittedAt: atPtr(8, 9)}},
		},
	}}
	g := Group(raw, start, end)

	alice := g.Developers["alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.PRsOpened)
	assert.Equal(t, 1, alice.PRsMerged, "merge after the window end is not counted")
	assert.Equal(t, 110, alice.LinesAdded)
	assert.Equal(t, 50, alice.LinesDeleted)
	require.NotNil(t, alice.AvgCycleHours())
	assert.InDelta(t, 28.0, *alice.AvgCycleHours(), 1e-9)
	assert.Zero(t, alice.ReviewsGiven, "reviews on a PR created before the window are ignored")

	bob := g.Developers["bob"]
	require.NotNil(t, bob)
	assert.Equal(t, 2, bob.ReviewsGiven)
	assert.Zero(t, bob.PRsOpened)
	require.NotNil(t, bob.AvgReviewHours())
	assert.InDelta(t, 5.0, *bob.AvgReviewHours(), 1e-9)
	assert.Nil(t, bob.AvgCycleHours())

	assert.NotContains(t, g.Developers, "carol", "pending and late reviews do not count")

	assert.Equal(t, 1, g.Daily[1].PRsOpened)
	assert.Equal(t, 2, g.Daily[1].ReviewsGiven)
	assert.Equal(t, 1, g.Daily[2].PRsMerged)
	assert.Equal(t, 1, g.Daily[12].PRsOpened)
	total := 0
	for _, d := range g.Daily {
		total += d.PRsMerged
	}
	assert.Equal(t, 1, total)
}

func TestGroupReviewTimingOnlyPositive(t *testing.T) {
	raw := &schema.RawAggregate{PullRequests: []schema.PullRequest{{
		Author: "alice", CreatedAt: at(8, 10),
		Reviews: []schema.Review{{Author: "bob", SubmittedAt: atPtr(8, 10)}},
	}}}
	g := Group(raw, start, end)

	bob := g.Developers["bob"]
	require.NotNil(t, bob)
	assert.Equal(t, 1, bob.ReviewsGiven)
	assert.Nil(t, bob.AvgReviewHours())
}

func TestGroupBotExclusion(t *testing.T) {
	raw := &schema.RawAggregate{
		Commits: []schema.Commit{
			{Login: "dependabot[bot]", AuthoredAt: at(8, 9), Additions: 500},
			{AuthoredAt: at(8, 9), Additions: 5},
		},
		PullRequests: []schema.PullRequest{
			{
				Author: "renovate[bot]", CreatedAt: at(9, 9), MergedAt: atPtr(9, 10), Additions: 300,
				Reviews: []schema.Review{
					{Author: "github-actions[bot]", SubmittedAt: atPtr(9, 11)},
					{Author: "alice", SubmittedAt: atPtr(9, 12)},
				},
			},
		},
	}
	g := Group(raw, start, end)

	require.Len(t, g.Developers, 1)
	alice := g.Developers["alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 1, alice.ReviewsGiven)
	assert.Zero(t, alice.PRsOpened)

	for _, d := range g.Daily {
		assert.Zero(t, d.Commits)
		assert.Zero(t, d.PRsOpened)
		assert.Zero(t, d.PRsMerged)
		assert.Zero(t, d.LinesAdded)
	}
	assert.Equal(t, 1, g.Daily[2].ReviewsGiven)
}

func TestGroupCustomBotSuffixes(t *testing.T) {
	raw := &schema.RawAggregate{Commits: []schema.Commit{
		{Login: "deploy-svc", AuthoredAt: at(8, 9)},
		{Login: "dependabot[bot]", AuthoredAt: at(8, 9)},
	}}
	g := Group(raw, start, end, WithBotSuffixes("-svc"))

	assert.NotContains(t, g.Developers, "deploy-svc")
	assert.Contains(t, g.Developers, "dependabot[bot]")
}
