// Package publisher creates hosting repositories, uploads generated site
// files and enables static hosting via the GitHub REST API.
package publisher

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/httpclient"
	"autosite/internal/common/logger"

	"autosite/internal/generator"
)

// Config holds hosting-backend settings.
type Config struct {
	Token   string
	Owner   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the GitHub API with classified errors.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: httpclient.NewClient(cfg.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "publisher",
			"owner":     cfg.Owner,
		}),
	}
}

var repoNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// RepoNameForTask derives a deterministic repository name from the task
// identifier, so a resubmitted task converges on the same repository.
func RepoNameForTask(task string) string {
	sum := md5.Sum([]byte(task))
	short := hex.EncodeToString(sum[:])[:8]
	base := strings.Trim(repoNameSanitizer.ReplaceAllString(task, "-"), "-")
	if base == "" {
		base = "site"
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return fmt.Sprintf("%s-%s", base, short)
}

// CreateRepository returns the existing repository when the name is already
// taken by the owner, otherwise creates a new public one.
func (c *Client) CreateRepository(ctx context.Context, name, task string) (*Repository, error) {
	if repo, err := c.getRepository(ctx, name); err == nil {
		c.logger.Info("repository already exists, reusing", map[string]interface{}{"repo": repo.FullName})
		return repo, nil
	}

	body, _ := json.Marshal(createRepoRequest{
		Name:        name,
		Description: fmt.Sprintf("Automated static site for task: %s", task),
		Private:     false,
		AutoInit:    false,
	})

	resp, raw, err := c.do(ctx, http.MethodPost, "/user/repos", body)
	if err != nil {
		return nil, apperrors.NewRepoCreateFailedError(err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated:
		var repo repoResponse
		if err := json.Unmarshal(raw, &repo); err != nil {
			return nil, apperrors.NewRepoCreateFailedError(fmt.Errorf("decode response: %w", err))
		}
		c.logger.Info("repository created", map[string]interface{}{"repo": repo.FullName})
		return &Repository{Name: repo.Name, FullName: repo.FullName, HTMLURL: repo.HTMLURL}, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewHostingAuthFailedError(apiMessage(raw, resp.StatusCode))

	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, apperrors.NewRepoNameConflictError(name)

	default:
		// Rate limits and 5xx are transient.
		return nil, apperrors.NewRepoCreateFailedError(fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(raw, resp.StatusCode)))
	}
}

// UploadFiles commits every generated file plus a LICENSE to the repository.
// Each PUT is create-or-update, so retrying the whole batch after a partial
// failure re-commits already uploaded paths harmlessly. Returns the SHA of
// the last commit.
func (c *Client) UploadFiles(ctx context.Context, repo *Repository, site generator.SiteFiles) (string, error) {
	paths := make([]string, 0, len(site)+1)
	for p := range site {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make(map[string]string, len(site)+1)
	for p, content := range site {
		files[p] = content
	}
	files["LICENSE"] = mitLicense(c.cfg.Owner)
	paths = append(paths, "LICENSE")

	var lastCommit string
	for _, path := range paths {
		sha, err := c.putFile(ctx, repo, path, files[path])
		if err != nil {
			stdErr := apperrors.Normalize(err)
			stdErr.WithMetadata("repository", repo.FullName)
			stdErr.WithMetadata("failed_path", path)
			return "", stdErr
		}
		lastCommit = sha
	}

	c.logger.Info("files uploaded", map[string]interface{}{
		"repo":   repo.FullName,
		"files":  len(paths),
		"commit": lastCommit,
	})
	return lastCommit, nil
}

func (c *Client) putFile(ctx context.Context, repo *Repository, path, content string) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.cfg.Owner, repo.Name, path)

	// Existing files need their blob SHA for an update.
	var existingSHA string
	if resp, raw, err := c.do(ctx, http.MethodGet, endpoint, nil); err == nil && resp.StatusCode == http.StatusOK {
		var current contentsGetResponse
		if json.Unmarshal(raw, &current) == nil {
			existingSHA = current.SHA
		}
	}

	body, _ := json.Marshal(contentsPutRequest{
		Message: fmt.Sprintf("Add/update %s", path),
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     existingSHA,
	})

	resp, raw, err := c.do(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return "", apperrors.NewUploadFailedError(path, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var put contentsPutResponse
		if err := json.Unmarshal(raw, &put); err != nil {
			return "", apperrors.NewUploadFailedError(path, fmt.Errorf("decode response: %w", err))
		}
		return put.Commit.SHA, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", apperrors.NewHostingAuthFailedError(apiMessage(raw, resp.StatusCode))
	default:
		return "", apperrors.NewUploadFailedError(path, fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(raw, resp.StatusCode)))
	}
}

// EnablePages turns on static hosting for the repository and returns the
// public URL. A 409 means hosting is already enabled, which is success.
func (c *Client) EnablePages(ctx context.Context, repo *Repository) (string, error) {
	var reqBody enablePagesRequest
	reqBody.Source.Branch = "main"
	reqBody.Source.Path = "/"
	body, _ := json.Marshal(reqBody)

	endpoint := fmt.Sprintf("/repos/%s/%s/pages", c.cfg.Owner, repo.Name)
	resp, raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", apperrors.NewPagesEnableFailedError(err)
	}

	pagesURL := fmt.Sprintf("https://%s.github.io/%s/", c.cfg.Owner, repo.Name)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent:
		c.logger.Info("pages enabled", map[string]interface{}{"repo": repo.FullName, "url": pagesURL})
		return pagesURL, nil
	case http.StatusConflict:
		c.logger.Info("pages already enabled", map[string]interface{}{"repo": repo.FullName})
		return pagesURL, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", apperrors.NewHostingAuthFailedError(apiMessage(raw, resp.StatusCode))
	case http.StatusNotFound:
		return "", apperrors.NewPagesUnavailableError(apiMessage(raw, resp.StatusCode))
	default:
		return "", apperrors.NewPagesEnableFailedError(fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(raw, resp.StatusCode)))
	}
}

func (c *Client) getRepository(ctx context.Context, name string) (*Repository, error) {
	resp, raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s", c.cfg.Owner, name), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var repo repoResponse
	if err := json.Unmarshal(raw, &repo); err != nil {
		return nil, err
	}
	return &Repository{Name: repo.Name, FullName: repo.FullName, HTMLURL: repo.HTMLURL}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "token "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, raw, nil
}

func apiMessage(raw []byte, status int) string {
	var apiErr apiErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("http status %d", status)
}

func mitLicense(owner string) string {
	if owner == "" {
		owner = "Owner"
	}
	return fmt.Sprintf(`MIT License

Copyright (c) %d %s

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`, time.Now().UTC().Year(), owner)
}
