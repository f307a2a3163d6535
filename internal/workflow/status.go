package workflow

import (
	"time"

	"autosite/internal/publisher"
)

// State is the workflow lifecycle tag.
type State string

const (
	StatePending    State = "pending"
	StateGenerating State = "generating"
	StatePublishing State = "publishing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// rank orders states so transitions can be checked for monotonicity.
func (s State) rank() int {
	switch s {
	case StatePending:
		return 0
	case StateGenerating:
		return 1
	case StatePublishing:
		return 2
	case StateSucceeded, StateFailed:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether moving to the given state preserves the
// pending -> generating -> publishing -> terminal ordering.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	return to.rank() > s.rank()
}

// Stage names the workflow step a failure occurred in.
type Stage string

const (
	StageGeneration Stage = "generation"
	StagePublishing Stage = "publishing"
)

// Status is the per-workflow record the coordinator mutates as the run
// advances and the status endpoints read.
type Status struct {
	ID    string `json:"id"`
	Task  string `json:"task"`
	Email string `json:"email"`
	State State  `json:"state"`

	// Failure detail; Stage and Error are set only for failed workflows.
	Stage Stage  `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`

	// Repository created before a publishing failure, retained so an
	// operator can intervene manually.
	Repository string `json:"repository,omitempty"`

	Result *publisher.PublishResult `json:"result,omitempty"`

	// CallbackError records a result-callback delivery failure without
	// changing the terminal state.
	CallbackError string `json:"callback_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStatus creates the pending record for an accepted request.
func NewStatus(id, task, email string) Status {
	now := time.Now().UTC()
	return Status{
		ID:        id,
		Task:      task,
		Email:     email,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
