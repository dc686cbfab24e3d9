package github

// reposQuery lists organization repositories, most recently pushed first.
const reposQuery = `
query($org: String!, $cursor: String) {
  organization(login: $org) {
    repositories(first: 100, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        name
        isArchived
        isFork
        pushedAt
      }
    }
  }
}`

// pullRequestsQuery lists pull requests of a repository, newest first.
const pullRequestsQuery = `
query($owner: String!, $repo: String!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequests(first: 100, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        createdAt
        mergedAt
        state
        author { login }
        additions
        deletions
      }
    }
  }
}`

// reviewsQuery lists the reviews of one pull request.
const reviewsQuery = `
query($owner: String!, $repo: String!, $prNumber: Int!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $prNumber) {
      reviews(first: 100, after: $cursor) {
        pageInfo { hasNextPage endCursor }
        nodes {
          author { login }
          submittedAt
          state
        }
      }
    }
  }
}`

// commitsQuery walks the default branch history since a timestamp.
const commitsQuery = `
query($owner: String!, $repo: String!, $since: GitTimestamp!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: 100, after: $cursor, since: $since) {
            pageInfo { hasNextPage endCursor }
            nodes {
              author {
                user { login }
                name
                date
              }
              additions
              deletions
            }
          }
        }
      }
    }
  }
}`
