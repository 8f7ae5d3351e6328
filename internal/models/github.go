package models

import "strings"

// GitHubWebhookPayload represents the GitHub push webhook payload
type GitHubWebhookPayload struct {
	Ref        string           `json:"ref"`
	Before     string           `json:"before"`
	After      string           `json:"after"`
	Compare    string           `json:"compare"`
	Commits    []GitHubCommit   `json:"commits"`
	HeadCommit *GitHubCommit    `json:"head_commit"`
	Repository GitHubRepository `json:"repository"`
	Pusher     GitHubPusher     `json:"pusher"`
	Created    bool             `json:"created"`
	Deleted    bool             `json:"deleted"`
	Forced     bool             `json:"forced"`
}

// GitHubCommit represents a commit in the GitHub webhook
type GitHubCommit struct {
	ID        string           `json:"id"`
	Distinct  bool             `json:"distinct"`
	Message   string           `json:"message"`
	Timestamp string           `json:"timestamp"`
	URL       string           `json:"url"`
	Author    GitHubCommitUser `json:"author"`
	Committer GitHubCommitUser `json:"committer"`
	Added     []string         `json:"added"`
	Removed   []string         `json:"removed"`
	Modified  []string         `json:"modified"`
}

// GitHubCommitUser represents a user in a commit
type GitHubCommitUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// GitHubRepository represents a repository in the GitHub webhook
type GitHubRepository struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// GitHubPusher represents the pusher in the GitHub webhook
type GitHubPusher struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GetRepositoryName returns the full repository name
func (p GitHubWebhookPayload) GetRepositoryName() string {
	return p.Repository.FullName
}

// GetPusherName returns the pusher's name
func (p GitHubWebhookPayload) GetPusherName() string {
	// Prefer committer name from first commit, fallback to pusher
	if len(p.Commits) > 0 && p.Commits[0].Committer.Name != "" {
		return p.Commits[0].Committer.Name
	}
	return p.Pusher.Name
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p GitHubWebhookPayload) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetCompareURL returns the compare URL
func (p GitHubWebhookPayload) GetCompareURL() string {
	return p.Compare
}

// GetCommits returns commits with their file changes
func (p GitHubWebhookPayload) GetCommits() []PushCommit {
	commits := make([]PushCommit, len(p.Commits))
	for i, c := range p.Commits {
		commits[i] = PushCommit{
			ID:      c.ID,
			Message: c.Message,
			URL:     c.URL,
			Changes: fileChanges(c.Added, c.Modified, c.Removed),
		}
	}
	return commits
}
