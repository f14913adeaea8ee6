// Package runs stores the history of booking attempts and their steps.
package runs

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/workflow"
)

type Status string

const (
	StatusRunning Status = "running"
	// StatusProceeded means a time slot was selected and the tail steps ran.
	StatusProceeded Status = "proceeded"
	// StatusStopped means no time slot could be selected.
	StatusStopped Status = "stopped"
	// StatusFailed means the run ended on an unexpected error.
	StatusFailed Status = "failed"
)

var ErrNotFound = errors.New("run not found")

type Run struct {
	ID            uuid.UUID  `json:"id"`
	Request       string     `json:"request"`
	DryRun        bool       `json:"dry_run"`
	Status        Status     `json:"status"`
	FinalLocation string     `json:"final_location,omitempty"`
	LastError     *string    `json:"last_error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Steps         []Step     `json:"steps,omitempty"`
}

type Step struct {
	Seq        int       `json:"seq"`
	Step       string    `json:"step"`
	Succeeded  bool      `json:"succeeded"`
	Reason     string    `json:"reason,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Outcome is what a finished run reports back.
type Outcome struct {
	Status        Status
	FinalLocation string
	Err           error
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, request string, dryRun bool) (uuid.UUID, error) {
	id := uuid.New()
	err := r.db.Exec(ctx, `INSERT INTO runs(id, request, dry_run, status) VALUES ($1,$2,$3,$4)`,
		id, request, dryRun, StatusRunning)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "create run")
	}
	return id, nil
}

func (r *Repo) AddStep(ctx context.Context, runID uuid.UUID, res workflow.StepResult) error {
	err := r.db.Exec(ctx, `
INSERT INTO run_steps(run_id, seq, step, succeeded, reason, duration_ms)
VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM run_steps WHERE run_id=$1), $2, $3, $4, $5)`,
		runID, string(res.Step), res.Succeeded(), res.Reason(), res.Duration.Milliseconds())
	return errors.Wrapf(err, "add step %s", res.Step)
}

func (r *Repo) Finish(ctx context.Context, runID uuid.UUID, out Outcome) error {
	var lastErr *string
	if out.Err != nil {
		msg := out.Err.Error()
		lastErr = &msg
	}
	err := r.db.Exec(ctx, `UPDATE runs SET status=$2, final_location=$3, last_error=$4, finished_at=now() WHERE id=$1`,
		runID, out.Status, out.FinalLocation, lastErr)
	return errors.Wrap(err, "finish run")
}

func (r *Repo) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
SELECT id, request, dry_run, status, final_location, last_error, started_at, finished_at
FROM runs
ORDER BY started_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := scanRun(rows, &run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns a run with its steps in order.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	var run Run
	row := r.db.QueryRow(ctx, `
SELECT id, request, dry_run, status, final_location, last_error, started_at, finished_at
FROM runs
WHERE id=$1`, id)
	if err := scanRun(row, &run); err != nil {
		return Run{}, err
	}

	rows, err := r.db.Query(ctx, `
SELECT seq, step, succeeded, reason, duration_ms, recorded_at
FROM run_steps
WHERE run_id=$1
ORDER BY seq`, id)
	if err != nil {
		return Run{}, errors.Wrap(err, "list steps")
	}
	defer rows.Close()
	for rows.Next() {
		var s Step
		if err := rows.Scan(&s.Seq, &s.Step, &s.Succeeded, &s.Reason, &s.DurationMS, &s.RecordedAt); err != nil {
			return Run{}, errors.Wrap(err, "scan step")
		}
		run.Steps = append(run.Steps, s)
	}
	return run, rows.Err()
}

// scanRun reads one runs row. A missing row becomes ErrNotFound.
func scanRun(row pgx.Row, run *Run) error {
	var status string
	err := row.Scan(&run.ID, &run.Request, &run.DryRun, &status, &run.FinalLocation, &run.LastError, &run.StartedAt, &run.FinishedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return errors.Wrap(err, "scan run")
	}
	run.Status = Status(status)
	return nil
}

// StatusOf maps a workflow outcome onto a run status.
func StatusOf(rep workflow.Report, err error) Status {
	switch {
	case err != nil:
		return StatusFailed
	case rep.Proceeded:
		return StatusProceeded
	default:
		return StatusStopped
	}
}
