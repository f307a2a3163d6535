package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryClassification(t *testing.T) {
	retryable := []error{
		NewGenerationFailedError(errors.New("backend down")),
		NewGenerationTimeoutError(),
		NewGenerationMalformedError("no file markers"),
		NewRepoCreateFailedError(errors.New("status 502")),
		NewUploadFailedError("index.html", errors.New("status 500")),
		NewPagesEnableFailedError(errors.New("status 500")),
		NewCallbackFailedError("https://example.com", errors.New("status 503")),
	}
	for _, err := range retryable {
		assert.True(t, IsRetryable(err), "%s should be retryable", Code(err))
	}

	permanent := []error{
		NewAuthFailedError("secret mismatch"),
		NewConfigMissingSecretError("GITHUB_TOKEN"),
		NewRepoNameConflictError("taken"),
		NewPagesUnavailableError("not available"),
		NewHostingAuthFailedError("bad credentials"),
	}
	for _, err := range permanent {
		assert.False(t, IsRetryable(err), "%s should not be retryable", Code(err))
	}
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeGenerationFailed))
	assert.Equal(t, 3, GetRetryCount(ErrCodeUploadFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeGenerationTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeAuthFailed))
	assert.Equal(t, 0, GetRetryCount(ErrCodeRepoNameConflict))
	assert.Equal(t, 0, GetRetryCount(ErrCodeInternal))
}

func TestNormalize(t *testing.T) {
	plain := errors.New("something broke")
	stdErr := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "something broke", stdErr.Details)
	assert.False(t, stdErr.Retryable)

	original := NewUploadFailedError("style.css", errors.New("status 500"))
	assert.Same(t, original, Normalize(original))

	// Normalize sees through wrapping.
	wrapped := fmt.Errorf("stage failed: %w", original)
	assert.Same(t, original, Normalize(wrapped))
	assert.Equal(t, ErrCodeUploadFailed, Code(wrapped))
	assert.True(t, IsRetryable(wrapped))
}

func TestIsRetryable_PlainError(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("unclassified")))
}

func TestWithMetadata(t *testing.T) {
	err := NewUploadFailedError("index.html", errors.New("status 500"))
	err.WithMetadata("repository", "octocat/site-abc12345").
		WithMetadata("failed_path", "index.html")

	assert.Equal(t, "octocat/site-abc12345", err.Metadata["repository"])
	assert.Equal(t, "index.html", err.Metadata["failed_path"])
}

func TestErrorString(t *testing.T) {
	err := NewAuthFailedError("secret mismatch")
	assert.Contains(t, err.Error(), "AUTH_FAILED")
	assert.Contains(t, err.Error(), "Invalid shared secret")
}
