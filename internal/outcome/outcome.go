// Package outcome records the result of one startup step.
//
// Nothing during startup is fatal except bad configuration.  Each step
// instead reports one of three statuses:
//
//   - OK           – the step ran and its feature is live.
//   - Unavailable  – the feature is off on purpose or expectedly absent
//     (no writable filesystem, optional module disabled); logged at warn.
//   - Failed       – an unexpected error; logged at error with context.
//     The process keeps running without the feature.
//
// Skipped is used for steps the deployment mode never runs.
package outcome

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Status classifies a step result.
type Status int

const (
	OK Status = iota
	Skipped
	Unavailable
	Failed
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Skipped:
		return "skipped"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// ErrUnavailable marks an error as an expected degradation.  Wrap it to
// turn a returned error into an Unavailable outcome instead of Failed.
var ErrUnavailable = errors.New("feature unavailable")

// Outcome is the result of one named step.
type Outcome struct {
	Step   string
	Status Status
	Err    error
}

// Ok reports success.
func Ok(step string) Outcome { return Outcome{Step: step, Status: OK} }

// Skip reports a step the current mode does not run.
func Skip(step string) Outcome { return Outcome{Step: step, Status: Skipped} }

// FromError classifies err: nil → OK, wraps ErrUnavailable → Unavailable,
// anything else → Failed.
func FromError(step string, err error) Outcome {
	switch {
	case err == nil:
		return Ok(step)
	case errors.Is(err, ErrUnavailable):
		return Outcome{Step: step, Status: Unavailable, Err: err}
	default:
		return Outcome{Step: step, Status: Failed, Err: err}
	}
}

// Unavailablef builds an Unavailable outcome with a formatted reason.
func Unavailablef(step, format string, args ...any) Outcome {
	return Outcome{
		Step:   step,
		Status: Unavailable,
		Err:    fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...)),
	}
}

// Log writes o at the level its status calls for.
func (o Outcome) Log(log *zap.SugaredLogger) {
	switch o.Status {
	case OK:
		log.Infow("startup step ok", "step", o.Step)
	case Skipped:
		log.Debugw("startup step skipped", "step", o.Step)
	case Unavailable:
		log.Warnw("startup step unavailable", "step", o.Step, "reason", o.Err)
	default:
		log.Errorw("startup step failed", "step", o.Step, "err", o.Err)
	}
}

// Live reports whether the feature behind the step is serving.
func (o Outcome) Live() bool { return o.Status == OK }
