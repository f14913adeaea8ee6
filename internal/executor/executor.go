// Package executor turns plain-language instructions into browser actions.
package executor

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/example/tablebook/internal/workflow"
)

var (
	// ErrNoActions means the planner found nothing on the page that matches
	// the instruction.
	ErrNoActions = errors.New("executor: no actions planned for instruction")
	// ErrUnsupportedSession means the session cannot be driven element by
	// element.
	ErrUnsupportedSession = errors.New("executor: session does not expose page actions")
)

// Page is a session that exposes its markup and element-level actions.
type Page interface {
	workflow.Session
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Press(ctx context.Context, selector, key string) error
	Check(ctx context.Context, selector string) error
}

// Action is one concrete step the planner asks for.
type Action struct {
	Kind     string `json:"kind"`
	Selector string `json:"selector"`
	Value    string `json:"value,omitempty"`
}

func apply(ctx context.Context, p Page, a Action) error {
	switch a.Kind {
	case "click":
		return p.Click(ctx, a.Selector)
	case "fill":
		return p.Fill(ctx, a.Selector, a.Value)
	case "press":
		key := a.Value
		if key == "" {
			key = "Enter"
		}
		return p.Press(ctx, a.Selector, key)
	case "check":
		return p.Check(ctx, a.Selector)
	case "navigate":
		return p.Navigate(ctx, a.Value)
	default:
		return errors.Newf("executor: unknown action kind %q", a.Kind)
	}
}
