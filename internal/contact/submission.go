package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/lprior-repo/sitekit/internal/validation"
)

// UnknownErrorMessage replaces failure values that carry no usable message.
const UnknownErrorMessage = "An unknown error occurred"

const submissionIDPrefix = "cs_"

// State is a step of the submission state machine.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition follows s within one submission.
func (s State) Terminal() bool {
	return s == StateInvalid || s == StateSuccess || s == StateFailed
}

// SubmissionResult is the outcome of a delivery attempt. Success results carry the
// sanitised form; failures carry an error message.
type SubmissionResult struct {
	ID        string
	Success   bool
	Data      Form
	Error     string
	Timestamp time.Time
}

// MarshalJSON emits only the fields of the populated variant.
func (r SubmissionResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			ID        string    `json:"id,omitempty"`
			Success   bool      `json:"success"`
			Data      Form      `json:"data"`
			Timestamp time.Time `json:"timestamp"`
		}{r.ID, true, r.Data, r.Timestamp})
	}
	return json.Marshal(struct {
		ID        string    `json:"id,omitempty"`
		Success   bool      `json:"success"`
		Error     string    `json:"error"`
		Timestamp time.Time `json:"timestamp"`
	}{r.ID, false, r.Error, r.Timestamp})
}

// Outcome reports where a submission stopped. Result is nil when validation failed.
type Outcome struct {
	State      State
	Validation validation.Result
	Result     *SubmissionResult
}

type submissionIDKey struct{}

// WithSubmissionID returns a context carrying the id of the submission being sent.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, submissionIDKey{}, id)
}

// SubmissionID returns the id stored by WithSubmissionID, or "".
func SubmissionID(ctx context.Context) string {
	id, _ := ctx.Value(submissionIDKey{}).(string)
	return id
}

// Sender performs the remote delivery of a sanitised form. The context carries
// the submission id, see SubmissionID.
type Sender interface {
	Send(ctx context.Context, form Form) error
}

// SenderFunc adapts ordinary functions to Sender.
type SenderFunc func(context.Context, Form) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, form Form) error {
	return f(ctx, form)
}

// Effects are invoked after a delivery result is computed. At most one of them
// runs per submission.
type Effects struct {
	Acknowledge func(ctx context.Context, result SubmissionResult)
	Alert       func(ctx context.Context, result SubmissionResult)
}

// SubmitterDeps bundles collaborators required to construct a Submitter.
type SubmitterDeps struct {
	Sender       Sender
	Clock        func() time.Time
	IDGenerator  func() string
	Logger       *zap.Logger
	Effects      Effects
	Meter        metric.Meter
	OnTransition func(ctx context.Context, from, to State)
}

// Submitter validates contact forms and hands valid ones to a Sender.
type Submitter struct {
	sender       Sender
	clock        func() time.Time
	newID        func() string
	logger       *zap.Logger
	effects      Effects
	submissions  metric.Int64Counter
	onTransition func(ctx context.Context, from, to State)
}

// NewSubmitter wires dependencies into a Submitter.
func NewSubmitter(deps SubmitterDeps) (*Submitter, error) {
	if deps.Sender == nil {
		return nil, errors.New("contact submitter: sender is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return submissionIDPrefix + ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter("github.com/lprior-repo/sitekit/internal/contact")
	}
	counter, err := meter.Int64Counter("sitekit.contact.submissions",
		metric.WithDescription("Contact form submissions by outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("contact submitter: create counter: %w", err)
	}

	return &Submitter{
		sender: deps.Sender,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:        idGen,
		logger:       logger,
		effects:      deps.Effects,
		submissions:  counter,
		onTransition: deps.OnTransition,
	}, nil
}

// Submit runs the pipeline for one form. It never returns an error: every failure
// is reported through the Outcome. Submit blocks until the Sender returns and
// does not de-duplicate concurrent calls.
func (s *Submitter) Submit(ctx context.Context, form Form) Outcome {
	s.transition(ctx, StateIdle, StateValidating)
	checked := Validate(form)
	if !checked.IsValid {
		s.transition(ctx, StateValidating, StateInvalid)
		s.record(ctx, StateInvalid)
		s.logger.Info("contact submission rejected",
			zap.Int("error_count", len(checked.Errors)),
		)
		return Outcome{State: StateInvalid, Validation: checked}
	}

	s.transition(ctx, StateValidating, StateSubmitting)
	clean := Sanitize(form)
	id := s.newID()
	started := time.Now()
	sendErr := s.send(WithSubmissionID(ctx, id), clean)
	latency := time.Since(started)

	if sendErr != "" {
		res := SubmissionResult{
			ID:        id,
			Success:   false,
			Error:     sendErr,
			Timestamp: s.clock(),
		}
		s.transition(ctx, StateSubmitting, StateFailed)
		s.record(ctx, StateFailed)
		s.logger.Error("contact submission failed",
			zap.String("submission_id", id),
			zap.String("error", sendErr),
			zap.Duration("latency", latency),
		)
		if s.effects.Alert != nil {
			s.effects.Alert(ctx, res)
		}
		return Outcome{State: StateFailed, Validation: checked, Result: &res}
	}

	res := SubmissionResult{
		ID:        id,
		Success:   true,
		Data:      clean,
		Timestamp: s.clock(),
	}
	s.transition(ctx, StateSubmitting, StateSuccess)
	s.record(ctx, StateSuccess)
	s.logger.Info("contact submission delivered",
		zap.String("submission_id", id),
		zap.Int("message_length", len(clean.Message)),
		zap.Duration("latency", latency),
	)
	if s.effects.Acknowledge != nil {
		s.effects.Acknowledge(ctx, res)
	}
	return Outcome{State: StateSuccess, Validation: checked, Result: &res}
}

// send calls the Sender and converts errors and panics into a message. An empty
// return means the delivery succeeded.
func (s *Submitter) send(ctx context.Context, form Form) (msg string) {
	defer func() {
		if rec := recover(); rec != nil {
			msg = NormalizeError(rec)
		}
	}()
	if err := s.sender.Send(ctx, form); err != nil {
		return NormalizeError(err)
	}
	return ""
}

func (s *Submitter) transition(ctx context.Context, from, to State) {
	if s.onTransition != nil {
		s.onTransition(ctx, from, to)
	}
}

func (s *Submitter) record(ctx context.Context, outcome State) {
	s.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// NormalizeError turns an arbitrary failure value into a message: errors yield
// their text, strings are used as-is, anything else becomes UnknownErrorMessage.
func NormalizeError(v any) string {
	switch e := v.(type) {
	case error:
		if e == nil {
			return UnknownErrorMessage
		}
		if msg := e.Error(); msg != "" {
			return msg
		}
		return UnknownErrorMessage
	case string:
		if e == "" {
			return UnknownErrorMessage
		}
		return e
	default:
		return UnknownErrorMessage
	}
}
