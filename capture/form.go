// Package capture runs the lead-capture flow behind the landing page form.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	landing "github.com/phbpx/landing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// State is the submission state of a form.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Outcome says which redirect a submission produced.
type Outcome int

const (
	Converted Outcome = iota + 1
	Fallback
)

// Result is where the visitor is sent after a submission. Cause holds the
// store error behind a Fallback.
type Result struct {
	Outcome     Outcome
	RedirectURL string
	Cause       error
}

// Control is the visible state of the submit button.
type Control struct {
	Label    string
	Disabled bool
}

const (
	DefaultLabel         = "Quero meu diagnóstico gratuito"
	DefaultSendingLabel  = "Enviando..."
	DefaultDispatchDelay = 150 * time.Millisecond
)

type Option func(*Form)

// WithDispatchDelay sets the pause between firing the conversion event and
// returning the redirect.
func WithDispatchDelay(d time.Duration) Option {
	return func(f *Form) { f.delay = d }
}

// WithLabels sets the idle and sending labels of the submit control.
func WithLabels(idle, sending string) Option {
	return func(f *Form) {
		f.control.Label = idle
		f.sendingLabel = sending
	}
}

// Form serializes submissions: while one is in flight, further submits are
// dropped, not queued.
type Form struct {
	store   landing.LeadStore
	tracker landing.Tracker
	link    landing.ChatLink
	log     *zap.SugaredLogger

	delay        time.Duration
	sendingLabel string

	mu      sync.Mutex
	state   State
	control Control
	draft   landing.Lead
}

// NewForm builds a form around its collaborators. A nil tracker is allowed.
func NewForm(store landing.LeadStore, tracker landing.Tracker, link landing.ChatLink, log *zap.SugaredLogger, opts ...Option) *Form {
	f := &Form{
		store:        store,
		tracker:      tracker,
		link:         link,
		log:          log,
		delay:        DefaultDispatchDelay,
		sendingLabel: DefaultSendingLabel,
		control:      Control{Label: DefaultLabel},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Control() Control {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.control
}

// Draft returns the field values of the last submission that did not convert.
func (f *Form) Draft() landing.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submit stores lead once and returns the chat redirect for the visitor. It
// returns ErrSubmissionInFlight without side effects while another submit
// is running. Store failures are not returned as errors: they produce a
// Fallback result.
func (f *Form) Submit(ctx context.Context, lead landing.Lead) (Result, error) {
	restore, ok := f.begin(lead)
	if !ok {
		return Result{}, landing.ErrSubmissionInFlight
	}
	defer restore()

	return f.process(ctx, lead), nil
}

// process runs a submission already claimed with begin.
func (f *Form) process(ctx context.Context, lead landing.Lead) Result {
	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "capture.submit")
	defer span.End()

	if err := f.store.Insert(ctx, lead); err != nil {
		reason := "unreachable"
		if errors.Is(err, landing.ErrWriteRejected) {
			reason = "rejected"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		f.log.Errorw("submit", "status", "store write failed", "reason", reason, "error", err)

		return Result{
			Outcome:     Fallback,
			RedirectURL: f.link.URL(landing.FallbackMessage(lead.Name)),
			Cause:       err,
		}
	}

	if f.tracker != nil {
		f.tracker.Track(ctx, landing.EventLead)
	}
	span.SetAttributes(attribute.Bool("lead.tracked", f.tracker != nil))

	// Give the conversion event a head start over the redirect. Delivery is
	// not awaited.
	if f.delay > 0 {
		t := time.NewTimer(f.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	url := f.link.URL(landing.SuccessMessage(lead.Name, lead.RevenueBracket))
	f.reset()

	return Result{Outcome: Converted, RedirectURL: url}
}

func (f *Form) begin(lead landing.Lead) (func(), bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == Submitting {
		return nil, false
	}

	original := f.control
	f.state = Submitting
	f.control = Control{Label: f.sendingLabel, Disabled: true}
	f.draft = lead

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.state = Idle
		f.control = original
	}, true
}

func (f *Form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = landing.Lead{}
}
