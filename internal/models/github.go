package models

// PullRequestEvent is the subset of a GitHub pull_request webhook payload the
// bridge acts on.
type PullRequestEvent struct {
	Action      string       `json:"action"`
	PullRequest *PullRequest `json:"pull_request"`
}

type PullRequest struct {
	HTMLURL    string `json:"html_url"`
	Title      string `json:"title"`
	Merged     bool   `json:"merged"`
	CommitsURL string `json:"commits_url"`
	Head       Branch `json:"head"`
	Base       Branch `json:"base"`
}

type Branch struct {
	Ref  string     `json:"ref"`
	Repo Repository `json:"repo"`
}

type Repository struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// RepoID is the id of the repository the pull request targets.
func (pr *PullRequest) RepoID() int64 {
	return pr.Base.Repo.ID
}

type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}
