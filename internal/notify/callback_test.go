package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "autosite/internal/common/errors"
	"autosite/internal/common/logger"
	"autosite/internal/publisher"
	"autosite/internal/workflow"
)

func fastCallbackNotifier(maxRetries int) *CallbackNotifier {
	return NewCallbackNotifier(CallbackConfig{
		MaxRetries:  maxRetries,
		Timeout:     2 * time.Second,
		BackoffBase: time.Millisecond,
	}, logger.NewNoOpLogger())
}

func succeededStatus() workflow.Status {
	status := workflow.NewStatus("wf-1", "portfolio", "dev@example.com")
	status.State = workflow.StateSucceeded
	status.Result = &publisher.PublishResult{
		RepoURL:   "https://github.com/octocat/portfolio-abc12345",
		CommitSHA: "abc123",
		PagesURL:  "https://octocat.github.io/portfolio-abc12345/",
	}
	return status
}

func TestCallback_NoURLIsNoOp(t *testing.T) {
	n := fastCallbackNotifier(3)
	err := n.WorkflowCompleted(context.Background(), succeededStatus(), workflow.Request{})
	assert.NoError(t, err)
}

func TestCallback_DeliversResultPayload(t *testing.T) {
	var got callbackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	req := workflow.Request{
		Email:       "dev@example.com",
		Task:        "portfolio",
		Round:       2,
		Nonce:       "n-42",
		CallbackURL: srv.URL,
	}
	n := fastCallbackNotifier(3)
	require.NoError(t, n.WorkflowCompleted(context.Background(), succeededStatus(), req))

	assert.Equal(t, "dev@example.com", got.Email)
	assert.Equal(t, "portfolio", got.Task)
	assert.Equal(t, 2, got.Round)
	assert.Equal(t, "n-42", got.Nonce)
	assert.Equal(t, "succeeded", got.State)
	assert.Equal(t, "abc123", got.CommitSHA)
	assert.Equal(t, "https://octocat.github.io/portfolio-abc12345/", got.PagesURL)
	assert.Empty(t, got.Error)
}

func TestCallback_FailedWorkflowCarriesError(t *testing.T) {
	var got callbackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	status := workflow.NewStatus("wf-1", "portfolio", "dev@example.com")
	status.State = workflow.StateFailed
	status.Error = "StandardError[UPLOAD_FAILED]: File upload failed"

	n := fastCallbackNotifier(3)
	require.NoError(t, n.WorkflowCompleted(context.Background(), status, workflow.Request{CallbackURL: srv.URL}))

	assert.Equal(t, "failed", got.State)
	assert.Contains(t, got.Error, "UPLOAD_FAILED")
	assert.Empty(t, got.PagesURL)
}

func TestCallback_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	n := fastCallbackNotifier(5)
	err := n.WorkflowCompleted(context.Background(), succeededStatus(), workflow.Request{CallbackURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestCallback_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := fastCallbackNotifier(3)
	err := n.WorkflowCompleted(context.Background(), succeededStatus(), workflow.Request{CallbackURL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCallbackFailed, apperrors.Code(err))
	assert.Equal(t, int32(3), attempts.Load())
}
