package migration

import (
	"encoding/json"
	"log/slog"
	"time"

	"example.com/sakila-migration/internal/models"
)

// Run status values.
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Outcome is the result of one entity task.
type Outcome struct {
	Entity      string
	Destination string
	Migrated    int
	Err         error
}

// Failed reports whether the task stopped on an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// PhaseReport groups the outcomes of a phase. Err is set when the phase
// connection could not be established, in which case Tasks is empty.
type PhaseReport struct {
	Name  string
	Err   error
	Tasks []Outcome
}

// Failed reports whether the phase or any of its tasks failed.
func (p PhaseReport) Failed() bool {
	if p.Err != nil {
		return true
	}
	for _, t := range p.Tasks {
		if t.Failed() {
			return true
		}
	}
	return false
}

// Migrated sums the records written by the phase.
func (p PhaseReport) Migrated() int {
	n := 0
	for _, t := range p.Tasks {
		n += t.Migrated
	}
	return n
}

// Report describes a complete migration run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Fatal is set when the run could not start; Phases is then empty.
	Fatal  error
	Phases []PhaseReport
}

// Failed reports whether anything in the run failed.
func (r *Report) Failed() bool {
	if r.Fatal != nil {
		return true
	}
	for _, p := range r.Phases {
		if p.Failed() {
			return true
		}
	}
	return false
}

// Migrated sums the records written by every phase.
func (r *Report) Migrated() int {
	n := 0
	for _, p := range r.Phases {
		n += p.Migrated()
	}
	return n
}

// Status is "succeeded" when nothing failed, "failed" when nothing was
// written and something failed, and "partial" otherwise.
func (r *Report) Status() string {
	switch {
	case !r.Failed():
		return StatusSucceeded
	case r.Migrated() == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Phase returns the report of the named phase.
func (r *Report) Phase(name string) (PhaseReport, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseReport{}, false
}

// LogValue implements slog.LogValuer for structured logging.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID),
		slog.String("status", r.Status()),
		slog.Int("migrated", r.Migrated()),
		slog.Duration("duration", r.Duration()),
	}
	if r.Fatal != nil {
		attrs = append(attrs, slog.String("fatal", r.Fatal.Error()))
	}
	for _, p := range r.Phases {
		failed := 0
		for _, t := range p.Tasks {
			if t.Failed() {
				failed++
			}
		}
		attrs = append(attrs, slog.Group(p.Name,
			slog.Int("migrated", p.Migrated()),
			slog.Int("failed_tasks", failed),
			slog.Bool("connected", p.Err == nil),
		))
	}
	return slog.GroupValue(attrs...)
}

type errorJSON struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type outcomeJSON struct {
	Entity      string     `json:"entity"`
	Destination string     `json:"destination"`
	Migrated    int        `json:"migrated"`
	Error       *errorJSON `json:"error,omitempty"`
}

type phaseJSON struct {
	Name  string        `json:"name"`
	Error *errorJSON    `json:"error,omitempty"`
	Tasks []outcomeJSON `json:"tasks"`
}

type reportJSON struct {
	RunID      string      `json:"run_id"`
	Status     string      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	DurationMS int64       `json:"duration_ms"`
	Migrated   int         `json:"migrated"`
	Fatal      *errorJSON  `json:"fatal,omitempty"`
	Phases     []phaseJSON `json:"phases"`
}

func newErrorJSON(err error) *errorJSON {
	if err == nil {
		return nil
	}
	return &errorJSON{Code: models.CodeOf(err), Message: err.Error()}
}

// MarshalJSON implements json.Marshaler. Errors are rendered as their code and message.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		RunID:      r.RunID,
		Status:     r.Status(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMS: r.Duration().Milliseconds(),
		Migrated:   r.Migrated(),
		Fatal:      newErrorJSON(r.Fatal),
		Phases:     make([]phaseJSON, 0, len(r.Phases)),
	}
	for _, p := range r.Phases {
		pj := phaseJSON{Name: p.Name, Error: newErrorJSON(p.Err), Tasks: make([]outcomeJSON, 0, len(p.Tasks))}
		for _, t := range p.Tasks {
			pj.Tasks = append(pj.Tasks, outcomeJSON{
				Entity:      t.Entity,
				Destination: t.Destination,
				Migrated:    t.Migrated,
				Error:       newErrorJSON(t.Err),
			})
		}
		out.Phases = append(out.Phases, pj)
	}
	return json.Marshal(out)
}
