// Package jobs defines the contract with the messaging collaborator that
// runs long operations out of process: route recalculation, imports,
// exports and geocoding. The engine only submits requests and reacts to
// terminal states; it never executes jobs itself.
package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Kind identifies the type of background job.
type Kind string

const (
	KindRecalculate Kind = "recalculate"
	KindImport      Kind = "import"
	KindExport      Kind = "export"
	KindGeocode     Kind = "geocode"
)

// State is the lifecycle state of a job. Only Completed and Failed are
// terminal; the engine ignores intermediate progress.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends the job.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// Request describes a job submission.
type Request struct {
	ID      uuid.UUID      `json:"id"`
	Kind    Kind           `json:"kind"`
	RouteID uuid.UUID      `json:"route_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

// StatusEvent is one job status update received from the collaborator.
type StatusEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	RouteID uuid.UUID `json:"route_id"`
	Kind    Kind      `json:"kind"`
	State   State     `json:"state"`
	Error   string    `json:"error,omitempty"`
}

// ErrSubmitTimeout is returned when the collaborator does not confirm a
// submission before the caller's deadline.
var ErrSubmitTimeout = errors.New("timeout submitting job")

// Client submits jobs to the messaging collaborator. Status updates
// arrive asynchronously on the event bus, not through this interface.
type Client interface {
	// Submit publishes the request and returns once the transport has
	// confirmed it. The job id is generated when req.ID is zero.
	Submit(ctx context.Context, req Request) (uuid.UUID, error)

	// Close releases the underlying connection.
	Close() error
}
