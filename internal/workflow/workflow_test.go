package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/tablebook/internal/intent"
	"github.com/example/tablebook/internal/workflow"
	"github.com/example/tablebook/internal/workflow/mocks"
)

const home = "https://www.example-reserve.test"

type fakeSession struct {
	location    string
	navigateErr error
	navigations []string
	closes      int
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigations = append(s.navigations, url)
	if s.navigateErr != nil {
		return s.navigateErr
	}
	s.location = url
	return nil
}

func (s *fakeSession) CurrentLocation() string { return s.location }

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

// fakeExecutor records every instruction and fails those containing one of
// the configured substrings. moves changes the session location after a
// matching instruction succeeds.
type fakeExecutor struct {
	failOn       []string
	moves        map[string]string
	instructions []string
}

func (e *fakeExecutor) Act(_ context.Context, sess workflow.Session, instruction string) error {
	e.instructions = append(e.instructions, instruction)
	for _, f := range e.failOn {
		if strings.Contains(instruction, f) {
			return errors.Newf("could not find element for %q", f)
		}
	}
	for key, loc := range e.moves {
		if strings.Contains(instruction, key) {
			sess.(*fakeSession).location = loc
		}
	}
	return nil
}

func (e *fakeExecutor) count(substr string) int {
	n := 0
	for _, in := range e.instructions {
		if strings.Contains(in, substr) {
			n++
		}
	}
	return n
}

func testIntent() intent.Intent {
	return intent.Intent{
		Restaurant: "Terra E Mare",
		Party:      2,
		Date:       intent.Date{Year: 2026, Month: time.October, Day: 15},
		Time:       intent.TimeOfDay{Hour: 19},
		Location:   time.UTC,
	}
}

func testConfig(phone string) workflow.Config {
	return workflow.Config{
		Site: workflow.Site{HomeURL: home, SearchPath: "/s"},
		Guest: workflow.Guest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     phone,
		},
		Delays: workflow.DefaultDelays(),
	}
}

func newWorkflow(exec workflow.Executor, cfg workflow.Config, opts ...workflow.Option) *workflow.Workflow {
	base := []workflow.Option{
		workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		workflow.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	}
	return workflow.New(exec, cfg, append(base, opts...)...)
}

func steps(rep workflow.Report) []workflow.Step {
	out := make([]workflow.Step, 0, len(rep.Steps))
	for _, s := range rep.Steps {
		out = append(out, s.Step)
	}
	return out
}

func TestRun_AllStepsSucceed(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	exec := &fakeExecutor{moves: map[string]string{"completes the reservation": home + "/booking/confirmation"}}

	rep, err := newWorkflow(exec, testConfig("+1 555 0100")).Run(context.Background(), sess, testIntent())
	require.NoError(t, err)

	assert.True(t, rep.Proceeded)
	assert.Equal(t, []workflow.Step{
		workflow.StepNavigateHome,
		workflow.StepSearchRestaurant,
		workflow.StepSetReservationParameters,
		workflow.StepSelectTimeSlot,
		workflow.StepSelectSeating,
		workflow.StepFillGuestInfo,
		workflow.StepFillPhone,
		workflow.StepCompleteReservation,
	}, steps(rep))
	assert.Empty(t, rep.Failed())
	assert.Equal(t, home+"/booking/confirmation", rep.FinalLocation)
	assert.Equal(t, []string{home}, sess.navigations)
	assert.Zero(t, sess.closes, "workflow must leave closing to the caller")

	assert.Equal(t, 1, exec.count("party size to 2 people"))
	assert.Equal(t, 1, exec.count("Thursday, October 15, 2026"))
	assert.Equal(t, 1, exec.count("closest to 7:00 PM"))
	assert.Equal(t, 1, exec.count(`"+1 555 0100"`))
}

func TestRun_GatingFailureStopsBooking(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{}
	exec := &fakeExecutor{failOn: []string{"time slot"}}

	rep, err := newWorkflow(exec, testConfig("+1 555 0100")).Run(context.Background(), sess, testIntent())
	require.NoError(t, err)

	assert.False(t, rep.Proceeded)
	assert.Equal(t, []workflow.Step{
		workflow.StepNavigateHome,
		workflow.StepSearchRestaurant,
		workflow.StepSetReservationParameters,
		workflow.StepSelectTimeSlot,
	}, steps(rep))

	for _, substr := range []string{"Standard seating", "first name", "phone number", "completes the reservation"} {
		assert.Zero(t, exec.count(substr), "instruction %q must not be attempted", substr)
	}

	slot, ok := rep.Result(workflow.StepSelectTimeSlot)
	require.True(t, ok)
	assert.False(t, slot.Succeeded())
	assert.Contains(t, slot.Reason(), "time slot")
	assert.True(t, errors.Is(slot.Err, workflow.ErrStepFailed))
	assert.Equal(t, home, rep.FinalLocation)
}

func TestRun_NonGatingFailuresContinue(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{failOn: []string{"reservation widget", "Standard seating", "first name"}}

	rep, err := newWorkflow(exec, testConfig("+1 555 0100")).Run(context.Background(), &fakeSession{}, testIntent())
	require.NoError(t, err)

	assert.True(t, rep.Proceeded)
	assert.Len(t, rep.Steps, 8)

	var failed []workflow.Step
	for _, s := range rep.Failed() {
		failed = append(failed, s.Step)
	}
	assert.Equal(t, []workflow.Step{
		workflow.StepSetReservationParameters,
		workflow.StepSelectSeating,
		workflow.StepFillGuestInfo,
	}, failed)
	assert.Equal(t, 1, exec.count("completes the reservation"))
}

func TestRun_PhoneStepSkippedWithoutPhone(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{}
	rep, err := newWorkflow(exec, testConfig("")).Run(context.Background(), &fakeSession{}, testIntent())
	require.NoError(t, err)

	_, ran := rep.Result(workflow.StepFillPhone)
	assert.False(t, ran)
	assert.Zero(t, exec.count("phone number"))
	assert.Empty(t, rep.Failed())
	assert.Len(t, rep.Steps, 7)
}

func TestRun_SearchSubSteps(t *testing.T) {
	t.Parallel()

	t.Run("submits and opens the restaurant when needed", func(t *testing.T) {
		exec := &fakeExecutor{moves: map[string]string{
			"Submit the search": home + "/s?term=terra",
			"search result for": home + "/r/terra-e-mare",
		}}
		rep, err := newWorkflow(exec, testConfig("")).Run(context.Background(), &fakeSession{}, testIntent())
		require.NoError(t, err)

		assert.Equal(t, 1, exec.count("Submit the search"))
		assert.Equal(t, 1, exec.count("search result for"))
		res, _ := rep.Result(workflow.StepSearchRestaurant)
		assert.True(t, res.Succeeded())
	})

	t.Run("skips submit when the search already navigated", func(t *testing.T) {
		exec := &fakeExecutor{moves: map[string]string{"search box": home + "/r/terra-e-mare"}}
		_, err := newWorkflow(exec, testConfig("")).Run(context.Background(), &fakeSession{}, testIntent())
		require.NoError(t, err)

		assert.Zero(t, exec.count("Submit the search"))
		assert.Zero(t, exec.count("search result for"))
	})

	t.Run("a failed search abandons the sub-flow but not the run", func(t *testing.T) {
		exec := &fakeExecutor{failOn: []string{"search box"}}
		rep, err := newWorkflow(exec, testConfig("")).Run(context.Background(), &fakeSession{}, testIntent())
		require.NoError(t, err)

		assert.Zero(t, exec.count("Submit the search"))
		res, _ := rep.Result(workflow.StepSearchRestaurant)
		assert.False(t, res.Succeeded())
		assert.True(t, rep.Proceeded)
		assert.Equal(t, 1, exec.count("reservation widget"))
	})
}

func TestRun_NavigationFailureIsReturned(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	exec := &fakeExecutor{}

	rep, err := newWorkflow(exec, testConfig("")).Run(context.Background(), sess, testIntent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, workflow.ErrNavigate))
	assert.Empty(t, rep.Steps)
	assert.Empty(t, exec.instructions)
}

func TestRun_CancelledDuringWaitIsReturned(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	exec := &fakeExecutor{}
	sleeper := func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := newWorkflow(exec, testConfig(""), workflow.WithSleeper(sleeper)).Run(ctx, &fakeSession{}, testIntent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, exec.instructions)
}

func TestRun_NamedDelays(t *testing.T) {
	t.Parallel()

	cfg := testConfig("")
	cfg.Delays = workflow.Delays{
		PostNavigate: 1 * time.Millisecond,
		PostSearch:   2 * time.Millisecond,
		PostParams:   3 * time.Millisecond,
		PostSlot:     4 * time.Millisecond,
	}
	var waits []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := newWorkflow(&fakeExecutor{}, cfg, workflow.WithSleeper(sleeper)).Run(context.Background(), &fakeSession{}, testIntent())
	require.NoError(t, err)
	// Search leaves the session on the landing page, so the submit wait runs too.
	assert.Equal(t, []time.Duration{1 * time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond, 4 * time.Millisecond}, waits)
}

func TestRun_RecordsStepsInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	exec := mocks.NewMockExecutor(ctrl)
	rec := mocks.NewMockRecorder(ctrl)

	sess.EXPECT().Navigate(gomock.Any(), home).Return(nil)
	sess.EXPECT().CurrentLocation().Return(home + "/r/terra-e-mare").AnyTimes()
	exec.EXPECT().Act(gomock.Any(), sess, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ workflow.Session, instruction string) error {
			if strings.Contains(instruction, "time slot") {
				return errors.New("no times available")
			}
			return nil
		}).Times(3)

	stepIs := func(step workflow.Step) gomock.Matcher { return stepMatcher(step) }
	gomock.InOrder(
		rec.EXPECT().RecordStep(gomock.Any(), stepIs(workflow.StepNavigateHome)).Return(nil),
		rec.EXPECT().RecordStep(gomock.Any(), stepIs(workflow.StepSearchRestaurant)).Return(nil),
		rec.EXPECT().RecordStep(gomock.Any(), stepIs(workflow.StepSetReservationParameters)).Return(errors.New("db down")),
		rec.EXPECT().RecordStep(gomock.Any(), stepIs(workflow.StepSelectTimeSlot)).Return(nil),
	)

	rep, err := newWorkflow(exec, testConfig("+1 555 0100"), workflow.WithRecorder(rec)).Run(context.Background(), sess, testIntent())
	require.NoError(t, err)
	assert.False(t, rep.Proceeded)
}

type stepMatcher workflow.Step

func (m stepMatcher) Matches(x any) bool {
	res, ok := x.(workflow.StepResult)
	return ok && res.Step == workflow.Step(m)
}

func (m stepMatcher) String() string { return "result of step " + string(m) }

func TestSite(t *testing.T) {
	t.Parallel()

	site := workflow.Site{HomeURL: "https://www.opentable.com", SearchPath: "/s"}
	assert.True(t, site.IsLanding("https://www.opentable.com/"))
	assert.True(t, site.IsLanding("https://www.opentable.com/?lang=en"))
	assert.False(t, site.IsLanding("https://www.opentable.com/r/nopa"))
	assert.True(t, site.IsSearchResults("https://www.opentable.com/s?term=nopa"))
	assert.True(t, site.IsSearchResults("https://www.opentable.com/s/"))
	assert.False(t, site.IsSearchResults("https://www.opentable.com/start"))
}
