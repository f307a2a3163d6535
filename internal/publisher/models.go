package publisher

import "time"

// Repository is the handle for a created (or reused) hosting repository.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// PublishResult is the terminal artifact of a successful publish run.
type PublishResult struct {
	RepoName     string    `json:"repo_name"`
	RepoURL      string    `json:"repo_url"`
	CommitSHA    string    `json:"commit_sha"`
	PagesURL     string    `json:"pages_url"`
	PagesEnabled bool      `json:"pages_enabled"`
	CompletedAt  time.Time `json:"completed_at"`
}

// API payloads.

type createRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type repoResponse struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

type contentsGetResponse struct {
	SHA string `json:"sha"`
}

type contentsPutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type contentsPutResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type enablePagesRequest struct {
	Source struct {
		Branch string `json:"branch"`
		Path   string `json:"path"`
	} `json:"source"`
}

type apiErrorResponse struct {
	Message string `json:"message"`
}
