// Package workflow coordinates one end-to-end run per accepted request:
// validate -> generate -> publish -> terminal status.
package workflow

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"

	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/logger"
	"autosite/internal/common/metrics"
	"autosite/internal/common/observability"
	"autosite/internal/generator"
	"autosite/internal/publisher"
)

// Request is one inbound generation request. Round, Nonce and CallbackURL
// are optional passthrough fields for the result callback.
type Request struct {
	Email       string
	Secret      string
	Task        string
	Brief       string
	Round       int
	Nonce       string
	CallbackURL string
}

// SiteGenerator produces the site files for a brief.
type SiteGenerator interface {
	Generate(ctx context.Context, brief, task string) (generator.SiteFiles, error)
}

// Publisher performs the three publishing sub-steps.
type Publisher interface {
	CreateRepository(ctx context.Context, name, task string) (*publisher.Repository, error)
	UploadFiles(ctx context.Context, repo *publisher.Repository, site generator.SiteFiles) (string, error)
	EnablePages(ctx context.Context, repo *publisher.Repository) (string, error)
}

// Notifier delivers terminal-state notifications. The returned error string
// is recorded on the status but never changes the terminal state.
type Notifier interface {
	WorkflowCompleted(ctx context.Context, status Status, req Request) error
}

// Config holds coordinator retry settings.
type Config struct {
	SharedSecret string
	MaxRetries   int           // attempt ceiling per retryable step; per-code budgets can lower it
	Backoff      time.Duration // initial backoff, doubles per attempt
}

// Coordinator validates requests and drives the workflow state machine on
// background workers.
type Coordinator struct {
	cfg      Config
	gen      SiteGenerator
	pub      Publisher
	store    StatusStore
	queue    *Queue
	notifier Notifier
	obs      *observability.Observability
	logger   logger.Logger
}

func NewCoordinator(
	cfg Config,
	gen SiteGenerator,
	pub Publisher,
	store StatusStore,
	queue *Queue,
	notifier Notifier,
	obs *observability.Observability,
	log logger.Logger,
) *Coordinator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &Coordinator{
		cfg:      cfg,
		gen:      gen,
		pub:      pub,
		store:    store,
		queue:    queue,
		notifier: notifier,
		obs:      obs,
		logger:   log.With(map[string]interface{}{"component": "coordinator"}),
	}
}

// Accept validates the shared secret and enqueues the workflow. On a secret
// mismatch no workflow instance is ever created.
func (c *Coordinator) Accept(req Request) (string, error) {
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(c.cfg.SharedSecret)) != 1 {
		metrics.WorkflowsRejected.WithLabelValues("invalid_secret").Inc()
		c.logger.Warn("invalid secret attempt", map[string]interface{}{"email": req.Email})
		return "", apperrors.NewAuthFailedError("shared secret mismatch")
	}

	id := uuid.NewString()
	status := NewStatus(id, req.Task, req.Email)
	if err := c.store.Put(context.Background(), status); err != nil {
		return "", err
	}

	if err := c.queue.Submit(func(ctx context.Context) {
		c.run(ctx, id, req)
	}); err != nil {
		metrics.WorkflowsRejected.WithLabelValues("queue").Inc()
		// The pending record would otherwise linger with no worker to
		// ever advance it.
		if delErr := c.store.Delete(context.Background(), id); delErr != nil {
			c.logger.WithError(delErr).Error("failed to remove unqueued status", map[string]interface{}{"workflowId": id})
		}
		return "", err
	}

	metrics.WorkflowsAccepted.Inc()
	c.logger.Info("request accepted", map[string]interface{}{
		"workflowId": id,
		"task":       req.Task,
		"email":      req.Email,
	})
	return id, nil
}

// run drives one workflow to a terminal state. It is the only writer for
// its status record, so transitions stay monotonic by construction; the
// advance helper still guards against regressions.
func (c *Coordinator) run(ctx context.Context, id string, req Request) {
	metrics.WorkflowsActive.Inc()
	defer metrics.WorkflowsActive.Dec()

	started := time.Now()
	status, ok, err := c.store.Get(ctx, id)
	if err != nil || !ok {
		c.logger.Error("status record missing at start of run", map[string]interface{}{"workflowId": id})
		return
	}

	log := c.logger.With(map[string]interface{}{"workflowId": id, "task": req.Task})

	// Stage 1: generation, with a bounded retry budget.
	status = c.advance(ctx, status, StateGenerating)
	genStart := time.Now()
	var site generator.SiteFiles
	err = c.withRetry(ctx, string(StageGeneration), func() error {
		var genErr error
		site, genErr = c.gen.Generate(ctx, req.Brief, req.Task)
		return genErr
	})
	metrics.StageDuration.WithLabelValues(string(StageGeneration)).Observe(time.Since(genStart).Seconds())
	if err != nil {
		c.fail(ctx, status, StageGeneration, err, req, started)
		return
	}

	// Stage 2: publishing. Repository creation, upload and hosting
	// enablement are each independently retryable.
	status = c.advance(ctx, status, StatePublishing)
	pubStart := time.Now()
	repoName := publisher.RepoNameForTask(req.Task)

	var repo *publisher.Repository
	err = c.withRetry(ctx, string(StagePublishing), func() error {
		var createErr error
		repo, createErr = c.pub.CreateRepository(ctx, repoName, req.Task)
		return createErr
	})
	if err != nil {
		metrics.StageDuration.WithLabelValues(string(StagePublishing)).Observe(time.Since(pubStart).Seconds())
		c.fail(ctx, status, StagePublishing, err, req, started)
		return
	}
	status.Repository = repo.FullName

	var commitSHA string
	err = c.withRetry(ctx, string(StagePublishing), func() error {
		var uploadErr error
		commitSHA, uploadErr = c.pub.UploadFiles(ctx, repo, site)
		return uploadErr
	})
	if err != nil {
		metrics.StageDuration.WithLabelValues(string(StagePublishing)).Observe(time.Since(pubStart).Seconds())
		c.fail(ctx, status, StagePublishing, err, req, started)
		return
	}

	var pagesURL string
	err = c.withRetry(ctx, string(StagePublishing), func() error {
		var pagesErr error
		pagesURL, pagesErr = c.pub.EnablePages(ctx, repo)
		return pagesErr
	})
	metrics.StageDuration.WithLabelValues(string(StagePublishing)).Observe(time.Since(pubStart).Seconds())
	if err != nil {
		c.fail(ctx, status, StagePublishing, err, req, started)
		return
	}

	status.Result = &publisher.PublishResult{
		RepoName:     repo.Name,
		RepoURL:      repo.HTMLURL,
		CommitSHA:    commitSHA,
		PagesURL:     pagesURL,
		PagesEnabled: true,
		CompletedAt:  time.Now().UTC(),
	}
	status = c.advance(ctx, status, StateSucceeded)

	metrics.WorkflowsCompleted.WithLabelValues(string(StateSucceeded)).Inc()
	if c.obs != nil {
		c.obs.RecordWorkflowProcessed(ctx, string(StateSucceeded))
		c.obs.RecordWorkflowDuration(ctx, time.Since(started), string(StateSucceeded))
	}
	log.Info("workflow succeeded", map[string]interface{}{
		"repo":     repo.FullName,
		"pagesUrl": pagesURL,
		"duration": time.Since(started).String(),
	})

	c.notify(ctx, status, req)
}

// withRetry runs fn up to the configured attempt ceiling with exponential
// backoff, escalating immediately on non-retryable errors. The per-code
// retry policy can shrink the ceiling, so e.g. timeouts get fewer attempts
// than plain backend failures.
func (c *Coordinator) withRetry(ctx context.Context, stage string, fn func() error) error {
	attempts := c.cfg.MaxRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := c.cfg.Backoff * (1 << (attempt - 2))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return lastErr
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		code := apperrors.Code(lastErr)
		metrics.StageFailures.WithLabelValues(stage, string(code)).Inc()
		if !apperrors.IsRetryable(lastErr) {
			return lastErr
		}
		if budget := apperrors.GetRetryCount(code); budget < attempts {
			attempts = budget
		}
		c.logger.Warn("stage attempt failed", map[string]interface{}{
			"stage":   stage,
			"attempt": attempt,
			"error":   lastErr.Error(),
		})
	}
	return lastErr
}

func (c *Coordinator) advance(ctx context.Context, status Status, to State) Status {
	if !status.State.CanTransition(to) {
		c.logger.Error("illegal state transition blocked", map[string]interface{}{
			"workflowId": status.ID,
			"from":       string(status.State),
			"to":         string(to),
		})
		return status
	}
	status.State = to
	status.UpdatedAt = time.Now().UTC()
	if err := c.store.Put(ctx, status); err != nil {
		c.logger.WithError(err).Error("failed to persist status", map[string]interface{}{"workflowId": status.ID})
	}
	return status
}

func (c *Coordinator) fail(ctx context.Context, status Status, stage Stage, err error, req Request, started time.Time) {
	stdErr := apperrors.Normalize(err)

	status.Stage = stage
	status.Error = stdErr.Error() + ": " + stdErr.Details
	if repo, ok := stdErr.Metadata["repository"].(string); ok && repo != "" {
		status.Repository = repo
	}
	status = c.advance(ctx, status, StateFailed)

	metrics.WorkflowsCompleted.WithLabelValues(string(StateFailed)).Inc()
	if c.obs != nil {
		c.obs.RecordWorkflowProcessed(ctx, string(StateFailed))
		c.obs.RecordWorkflowDuration(ctx, time.Since(started), string(StateFailed))
	}
	c.logger.Error("workflow failed", map[string]interface{}{
		"workflowId": status.ID,
		"stage":      string(stage),
		"errorCode":  string(stdErr.Code),
		"details":    stdErr.Details,
		"repository": status.Repository,
	})

	c.notify(ctx, status, req)
}

func (c *Coordinator) notify(ctx context.Context, status Status, req Request) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.WorkflowCompleted(ctx, status, req); err != nil {
		status.CallbackError = err.Error()
		status.UpdatedAt = time.Now().UTC()
		if putErr := c.store.Put(ctx, status); putErr != nil {
			c.logger.WithError(putErr).Error("failed to record callback error", map[string]interface{}{"workflowId": status.ID})
		}
	}
}

// Status fetches the current record for a workflow id.
func (c *Coordinator) Status(ctx context.Context, id string) (Status, bool, error) {
	return c.store.Get(ctx, id)
}
