package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/tablebook/internal/intent"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Workflow drives one reservation attempt step by step. Steps are
// best-effort: a failed step is logged and the run moves on, except for the
// time-slot selection, whose failure ends the run.
type Workflow struct {
	exec     Executor
	cfg      Config
	log      *slog.Logger
	sleep    Sleeper
	recorder Recorder
	now      func() time.Time
}

type Option func(*Workflow)

func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.log = l
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(w *Workflow) {
		if s != nil {
			w.sleep = s
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(w *Workflow) { w.recorder = r }
}

func New(exec Executor, cfg Config, opts ...Option) *Workflow {
	w := &Workflow{
		exec:  exec,
		cfg:   cfg,
		log:   slog.Default(),
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the reservation steps against sess. Step failures are
// reported in the Report; only navigation failures and context cancellation
// are returned as errors. Run never closes sess.
func (w *Workflow) Run(ctx context.Context, sess Session, in intent.Intent) (Report, error) {
	var rep Report

	home := w.cfg.Site.HomeURL
	w.log.Info("navigating to reservation site", "url", home)
	start := w.now()
	if err := sess.Navigate(ctx, home); err != nil {
		return rep, errors.Wrapf(errors.Mark(err, ErrNavigate), "navigate to %s", home)
	}
	w.finish(ctx, &rep, StepResult{Step: StepNavigateHome, Duration: w.now().Sub(start)})
	if err := w.sleep(ctx, w.cfg.Delays.PostNavigate); err != nil {
		return rep, errors.Wrap(err, "waiting for landing page")
	}

	// Search failures are swallowed for the whole sub-flow: the executor may
	// already have landed on a usable page.
	if err := w.step(ctx, &rep, StepSearchRestaurant, func(ctx context.Context) error {
		return w.searchRestaurant(ctx, sess, in.Restaurant)
	}); err != nil {
		return rep, err
	}

	if err := w.step(ctx, &rep, StepSetReservationParameters, func(ctx context.Context) error {
		if err := w.exec.Act(ctx, sess, reservationParametersInstruction(in)); err != nil {
			return err
		}
		return w.sleep(ctx, w.cfg.Delays.PostParams)
	}); err != nil {
		return rep, err
	}

	if err := w.step(ctx, &rep, StepSelectTimeSlot, func(ctx context.Context) error {
		if err := w.exec.Act(ctx, sess, timeSlotInstruction(in)); err != nil {
			return err
		}
		return w.sleep(ctx, w.cfg.Delays.PostSlot)
	}); err != nil {
		return rep, err
	}

	slot, _ := rep.Result(StepSelectTimeSlot)
	rep.Proceeded = slot.Succeeded()
	if !rep.Proceeded {
		w.log.Warn("could not proceed: no time slot selected, no further steps will run", "reason", slot.Reason())
		rep.FinalLocation = sess.CurrentLocation()
		w.log.Info("final page", "location", rep.FinalLocation)
		return rep, nil
	}

	tail := []struct {
		step Step
		skip bool
		fn   func(ctx context.Context) error
	}{
		{StepSelectSeating, false, func(ctx context.Context) error {
			return w.exec.Act(ctx, sess, seatingInstruction)
		}},
		{StepFillGuestInfo, false, func(ctx context.Context) error {
			return w.exec.Act(ctx, sess, guestInfoInstruction(w.cfg.Guest))
		}},
		{StepFillPhone, w.cfg.Guest.Phone == "", func(ctx context.Context) error {
			return w.exec.Act(ctx, sess, phoneInstruction(w.cfg.Guest.Phone))
		}},
		{StepCompleteReservation, false, func(ctx context.Context) error {
			return w.exec.Act(ctx, sess, completeInstruction)
		}},
	}
	for _, t := range tail {
		if t.skip {
			continue
		}
		if err := w.step(ctx, &rep, t.step, t.fn); err != nil {
			return rep, err
		}
	}

	rep.FinalLocation = sess.CurrentLocation()
	w.log.Info("final page", "location", rep.FinalLocation)
	return rep, nil
}

func (w *Workflow) searchRestaurant(ctx context.Context, sess Session, restaurant string) error {
	if err := w.exec.Act(ctx, sess, searchInstruction(restaurant)); err != nil {
		return err
	}
	if err := w.sleep(ctx, w.cfg.Delays.PostSearch); err != nil {
		return err
	}

	if w.cfg.Site.IsLanding(sess.CurrentLocation()) {
		w.log.Debug("still on landing page, submitting search")
		if err := w.exec.Act(ctx, sess, submitSearchInstruction); err != nil {
			return err
		}
		if err := w.sleep(ctx, w.cfg.Delays.PostSearch); err != nil {
			return err
		}
	}

	if w.cfg.Site.IsSearchResults(sess.CurrentLocation()) {
		w.log.Debug("on search results, opening restaurant page")
		if err := w.exec.Act(ctx, sess, openRestaurantInstruction(restaurant)); err != nil {
			return err
		}
		if err := w.sleep(ctx, w.cfg.Delays.PostOpenRestaurant); err != nil {
			return err
		}
	}
	return nil
}

// step runs fn as one best-effort step. The returned error is non-nil only
// when ctx was cancelled; a failing fn is recorded and swallowed.
func (w *Workflow) step(ctx context.Context, rep *Report, step Step, fn func(context.Context) error) error {
	w.log.Info("step started", "step", step)
	start := w.now()
	err := fn(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "%s interrupted", step)
	}

	res := StepResult{Step: step, Duration: w.now().Sub(start)}
	if err != nil {
		res.Err = errors.Mark(err, ErrStepFailed)
		w.log.Warn("step failed", "step", step, "reason", err.Error())
	} else {
		w.log.Info("step succeeded", "step", step)
	}
	w.finish(ctx, rep, res)
	return nil
}

func (w *Workflow) finish(ctx context.Context, rep *Report, res StepResult) {
	rep.Steps = append(rep.Steps, res)
	if w.recorder == nil {
		return
	}
	if err := w.recorder.RecordStep(ctx, res); err != nil {
		w.log.Warn("recording step failed", "step", res.Step, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
