package executor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/tablebook/internal/workflow"
)

// DryRun logs each instruction and reports success without touching the
// page.
type DryRun struct {
	log *slog.Logger

	mu           sync.Mutex
	instructions []string
}

func NewDryRun(log *slog.Logger) *DryRun {
	if log == nil {
		log = slog.Default()
	}
	return &DryRun{log: log}
}

func (d *DryRun) Act(ctx context.Context, _ workflow.Session, instruction string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.log.Info("dry run: would act", "instruction", instruction)
	d.mu.Lock()
	d.instructions = append(d.instructions, instruction)
	d.mu.Unlock()
	return nil
}

func (d *DryRun) Instructions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.instructions...)
}
