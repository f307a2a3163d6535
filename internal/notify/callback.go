// Package notify delivers terminal-state notifications: the result callback
// POST, an optional requester email and an optional ops alert.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/httpclient"
	"autosite/internal/common/logger"
	"autosite/internal/workflow"
)

// CallbackConfig controls result-callback delivery.
type CallbackConfig struct {
	MaxRetries int
	Timeout    time.Duration
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
}

// CallbackNotifier POSTs the workflow result to the URL supplied with the
// request, retrying with exponential backoff.
type CallbackNotifier struct {
	cfg    CallbackConfig
	http   *httpclient.Client
	logger logger.Logger
}

func NewCallbackNotifier(cfg CallbackConfig, log logger.Logger) *CallbackNotifier {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &CallbackNotifier{
		cfg:    cfg,
		http:   httpclient.NewClient(cfg.Timeout),
		logger: log.With(map[string]interface{}{"component": "callback"}),
	}
}

type callbackPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	State     string `json:"state"`
	RepoURL   string `json:"repo_url,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	PagesURL  string `json:"pages_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (n *CallbackNotifier) WorkflowCompleted(ctx context.Context, status workflow.Status, req workflow.Request) error {
	if req.CallbackURL == "" {
		return nil
	}

	payload := callbackPayload{
		Email: req.Email,
		Task:  req.Task,
		Round: req.Round,
		Nonce: req.Nonce,
		State: string(status.State),
		Error: status.Error,
	}
	if status.Result != nil {
		payload.RepoURL = status.Result.RepoURL
		payload.CommitSHA = status.Result.CommitSHA
		payload.PagesURL = status.Result.PagesURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewCallbackFailedError(req.CallbackURL, err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			// 1s, 2s, 4s, 8s, ...
			backoff := n.cfg.BackoffBase * (1 << (attempt - 2))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return apperrors.NewCallbackFailedError(req.CallbackURL, ctx.Err())
			}
		}

		lastErr = n.post(ctx, req.CallbackURL, body)
		if lastErr == nil {
			n.logger.Info("callback delivered", map[string]interface{}{
				"workflowId": status.ID,
				"attempt":    attempt,
			})
			return nil
		}
		n.logger.Warn("callback attempt failed", map[string]interface{}{
			"workflowId": status.ID,
			"attempt":    attempt,
			"error":      lastErr.Error(),
		})
	}

	return apperrors.NewCallbackFailedError(req.CallbackURL, lastErr)
}

func (n *CallbackNotifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.DoWithContext(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
