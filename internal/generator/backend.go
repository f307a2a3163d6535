package generator

import "context"

// TextBackend abstracts the text-completion provider so implementations can be
// swapped at startup and mocked in tests.
type TextBackend interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Name() string
}

// Settings holds provider configuration shared by the concrete backends.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
