package workflow

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import "context"

// Session is the browser page a run drives. Every step reads its current
// location and mutates it through the Executor.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentLocation() string
	Close() error
}

// Executor carries out a natural-language instruction against the session's
// current page. It performs zero or more UI interactions and returns an error
// with a human-readable reason when it cannot.
type Executor interface {
	Act(ctx context.Context, sess Session, instruction string) error
}

// Recorder receives every finished step, in order.
type Recorder interface {
	RecordStep(ctx context.Context, res StepResult) error
}
