// Package booking runs one reservation attempt end to end: parse the
// request, open a browser session, drive the workflow and release the
// session.
package booking

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/example/tablebook/internal/intent"
	"github.com/example/tablebook/internal/runs"
	"github.com/example/tablebook/internal/workflow"
)

// SessionOpener provides a fresh session for each run.
type SessionOpener interface {
	Open(ctx context.Context) (workflow.Session, error)
}

// History records runs. It is optional.
type History interface {
	Create(ctx context.Context, request string, dryRun bool) (uuid.UUID, error)
	AddStep(ctx context.Context, runID uuid.UUID, res workflow.StepResult) error
	Finish(ctx context.Context, runID uuid.UUID, out runs.Outcome) error
}

type Service struct {
	parser  *intent.Parser
	opener  SessionOpener
	exec    workflow.Executor
	cfg     workflow.Config
	history History
	log     *slog.Logger
	sleeper workflow.Sleeper
	dryRun  bool
}

type Option func(*Service)

func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSleeper(sl workflow.Sleeper) Option {
	return func(s *Service) { s.sleeper = sl }
}

// WithDryRun labels recorded runs as dry runs.
func WithDryRun(dry bool) Option {
	return func(s *Service) { s.dryRun = dry }
}

func New(parser *intent.Parser, opener SessionOpener, exec workflow.Executor, cfg workflow.Config, opts ...Option) *Service {
	s := &Service{
		parser: parser,
		opener: opener,
		exec:   exec,
		cfg:    cfg,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Result struct {
	// RunID is uuid.Nil when no history is configured.
	RunID  uuid.UUID       `json:"run_id"`
	Intent intent.Intent   `json:"intent"`
	Report workflow.Report `json:"report"`
}

// Book makes one reservation attempt for request. A failed step, including
// the time-slot step, is not an error: it shows up in the report. Errors are
// reserved for runs that could not be carried out at all. The session is
// closed exactly once on every path after it was opened.
func (s *Service) Book(ctx context.Context, request string) (res Result, err error) {
	res.Intent = s.parser.Parse(request)
	in := res.Intent
	s.log.Info("parsed booking request",
		"restaurant", in.Restaurant,
		"party", in.Party,
		"date", in.Date.String(),
		"time", in.Time.String(),
	)

	log := s.log
	res.RunID = s.startRun(ctx, request)
	if res.RunID != uuid.Nil {
		log = log.With("run_id", res.RunID.String())
	}
	defer func() {
		s.finishRun(ctx, res.RunID, res.Report, err)
	}()

	sess, err := s.opener.Open(ctx)
	if err != nil {
		return res, errors.Wrap(err, "open browser session")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("closing session failed", "error", cerr)
		}
	}()

	opts := []workflow.Option{workflow.WithLogger(log), workflow.WithSleeper(s.sleeper)}
	if res.RunID != uuid.Nil {
		opts = append(opts, workflow.WithRecorder(stepRecorder{h: s.history, runID: res.RunID}))
	}
	wf := workflow.New(s.exec, s.cfg, opts...)

	res.Report, err = wf.Run(ctx, sess, in)
	if err != nil {
		return res, errors.Wrap(err, "reservation run")
	}
	if !res.Report.Proceeded {
		log.Warn("reservation stopped before booking", "location", res.Report.FinalLocation)
	} else {
		log.Info("reservation flow finished", "location", res.Report.FinalLocation, "failed_steps", len(res.Report.Failed()))
	}
	return res, nil
}

func (s *Service) startRun(ctx context.Context, request string) uuid.UUID {
	if s.history == nil {
		return uuid.Nil
	}
	id, err := s.history.Create(ctx, request, s.dryRun)
	if err != nil {
		s.log.Warn("recording run failed, continuing without history", "error", err)
		return uuid.Nil
	}
	return id
}

func (s *Service) finishRun(ctx context.Context, id uuid.UUID, rep workflow.Report, runErr error) {
	if s.history == nil || id == uuid.Nil {
		return
	}
	out := runs.Outcome{
		Status:        runs.StatusOf(rep, runErr),
		FinalLocation: rep.FinalLocation,
		Err:           runErr,
	}
	if err := s.history.Finish(context.WithoutCancel(ctx), id, out); err != nil {
		s.log.Warn("recording run outcome failed", "run_id", id.String(), "error", err)
	}
}

type stepRecorder struct {
	h     History
	runID uuid.UUID
}

func (r stepRecorder) RecordStep(ctx context.Context, res workflow.StepResult) error {
	return r.h.AddStep(context.WithoutCancel(ctx), r.runID, res)
}
