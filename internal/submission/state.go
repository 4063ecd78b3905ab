package submission

import (
	"fmt"
	"strings"
	"time"
)

// FailureMessage is the only error text ever shown to the user. Every
// failure cause (network, status, body) collapses to it.
const FailureMessage = "Error fetching the prediction. Please try again."

// Phase is the lifecycle position of the form's submission.
type Phase int

const (
	// PhaseIdle means nothing has been submitted since the last reset
	PhaseIdle Phase = iota
	// PhasePending means a request is in flight
	PhasePending
	// PhaseSucceeded means the last honored request returned a probability
	PhaseSucceeded
	// PhaseFailed means the last honored request failed
	PhaseFailed
)

// String returns the lowercase phase name used in JSON and templates
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhasePending, PhaseSucceeded, PhaseFailed} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// State is a snapshot of the submission. Probability is meaningful only in
// PhaseSucceeded and Message only in PhaseFailed, so a result and an error
// can never be shown together.
type State struct {
	Phase       Phase     `json:"phase"`
	Probability float64   `json:"probability"`
	Message     string    `json:"message,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Seq         uint64    `json:"seq"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Result returns the probability when the submission succeeded.
func (s State) Result() (float64, bool) {
	if s.Phase != PhaseSucceeded {
		return 0, false
	}
	return s.Probability, true
}

// ErrorMessage returns the failure text when the submission failed.
func (s State) ErrorMessage() (string, bool) {
	if s.Phase != PhaseFailed {
		return "", false
	}
	return s.Message, true
}

// Pending reports whether a request is in flight.
func (s State) Pending() bool {
	return s.Phase == PhasePending
}

// Display returns the text the renderers show for this state.
func (s State) Display() string {
	switch s.Phase {
	case PhaseSucceeded:
		return FormatProbability(s.Probability)
	case PhaseFailed:
		return s.Message
	default:
		return ""
	}
}

// FormatProbability renders a probability with two decimals and a percent
// sign. Zero renders as "0.00%".
func FormatProbability(v float64) string {
	s := fmt.Sprintf("%.2f%%", v)
	if strings.HasPrefix(s, "-0.00") {
		s = s[1:]
	}
	return s
}
