package models

import "strings"

// GiteaWebhookPayload represents the Gitea push webhook payload
type GiteaWebhookPayload struct {
	Ref        string          `json:"ref"`
	Before     string          `json:"before"`
	After      string          `json:"after"`
	CompareURL string          `json:"compare_url"`
	Commits    []GiteaCommit   `json:"commits"`
	Repository GiteaRepository `json:"repository"`
	Pusher     GiteaUser       `json:"pusher"`
}

// GiteaCommit represents a commit in the Gitea webhook
type GiteaCommit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	Committer GiteaUser `json:"committer"`
	Timestamp string    `json:"timestamp"`
	Added     []string  `json:"added"`
	Removed   []string  `json:"removed"`
	Modified  []string  `json:"modified"`
}

// GiteaRepository represents a repository in the Gitea webhook
type GiteaRepository struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// GiteaUser represents a user in the Gitea webhook
type GiteaUser struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// GetRepositoryName returns the full repository name
func (p GiteaWebhookPayload) GetRepositoryName() string {
	return p.Repository.FullName
}

// GetPusherName returns the pusher's name
func (p GiteaWebhookPayload) GetPusherName() string {
	if len(p.Commits) > 0 && p.Commits[0].Committer.Name != "" {
		return p.Commits[0].Committer.Name
	}
	if p.Pusher.FullName != "" {
		return p.Pusher.FullName
	}
	return p.Pusher.Login
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p GiteaWebhookPayload) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetCompareURL returns the compare URL
func (p GiteaWebhookPayload) GetCompareURL() string {
	return p.CompareURL
}

// GetCommits returns commits with their file changes
func (p GiteaWebhookPayload) GetCommits() []PushCommit {
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
