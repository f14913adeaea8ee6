package workflow

import (
	"encoding/json"
	"time"
)

// Step names one stage of the reservation flow.
type Step string

const (
	StepNavigateHome             Step = "navigate_home"
	StepSearchRestaurant         Step = "search_restaurant"
	StepSetReservationParameters Step = "set_reservation_parameters"
	StepSelectTimeSlot           Step = "select_time_slot"
	StepSelectSeating            Step = "select_seating"
	StepFillGuestInfo            Step = "fill_guest_info"
	StepFillPhone                Step = "fill_phone"
	StepCompleteReservation      Step = "complete_reservation"
)

// StepResult is the outcome of one step: succeeded when Err is nil, failed
// with Err's message as the reason otherwise.
type StepResult struct {
	Step     Step
	Err      error
	Duration time.Duration
}

func (r StepResult) Succeeded() bool { return r.Err == nil }

// Reason is the failure text, empty for a successful step.
func (r StepResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Step       Step   `json:"step"`
		Succeeded  bool   `json:"succeeded"`
		Reason     string `json:"reason,omitempty"`
		DurationMS int64  `json:"duration_ms"`
	}{r.Step, r.Succeeded(), r.Reason(), r.Duration.Milliseconds()})
}

// Report summarizes a run. Proceeded is the outcome of the time-slot step;
// when false none of the later steps were attempted.
type Report struct {
	Steps         []StepResult `json:"steps"`
	Proceeded     bool         `json:"proceeded"`
	FinalLocation string       `json:"final_location"`
}

// Result returns the result recorded for step, if it ran.
func (r Report) Result(step Step) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}

// Failed lists the steps that ran and failed.
func (r Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}
