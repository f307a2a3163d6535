package notify

import (
	"context"
	"strings"

	"autosite/internal/workflow"
)

// Multi fans a terminal-state notification out to several notifiers. Every
// notifier runs; errors are joined so a failing email never suppresses the
// result callback.
type Multi struct {
	notifiers []workflow.Notifier
}

func NewMulti(notifiers ...workflow.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) WorkflowCompleted(ctx context.Context, status workflow.Status, req workflow.Request) error {
	var errs []string
	for _, n := range m.notifiers {
		if err := n.WorkflowCompleted(ctx, status, req); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return &multiError{msg: strings.Join(errs, "; ")}
	}
	return nil
}

type multiError struct{ msg string }

func (e *multiError) Error() string { return e.msg }
