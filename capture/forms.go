package capture

import (
	"context"
	"sync"

	landing "github.com/phbpx/landing"
)

// Forms keeps one Form per visitor session. A form lives only while a
// submission is in flight.
type Forms struct {
	newForm func() *Form

	mu    sync.Mutex
	forms map[string]*Form
}

// NewForms builds forms on demand with the given constructor.
func NewForms(newForm func() *Form) *Forms {
	return &Forms{
		newForm: newForm,
		forms:   make(map[string]*Form),
	}
}

// Submit runs lead through the visitor's form. A visitor has at most one
// submission in flight; others get landing.ErrSubmissionInFlight.
func (fs *Forms) Submit(ctx context.Context, key string, lead landing.Lead) (Result, error) {
	f, restore, ok := fs.claim(key, lead)
	if !ok {
		return Result{}, landing.ErrSubmissionInFlight
	}
	defer fs.release(key, f, restore)
	return f.process(ctx, lead), nil
}

// Control reports the submit control of the visitor's form, or the idle
// control when nothing is in flight.
func (fs *Forms) Control(key string) Control {
	fs.mu.Lock()
	f, ok := fs.forms[key]
	fs.mu.Unlock()
	if !ok {
		return fs.newForm().Control()
	}
	return f.Control()
}

// Len is the number of forms currently held.
func (fs *Forms) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.forms)
}

// claim finds or creates the visitor's form and marks it Submitting while
// holding the registry lock.
func (fs *Forms) claim(key string, lead landing.Lead) (*Form, func(), bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.forms[key]
	if !ok {
		f = fs.newForm()
		fs.forms[key] = f
	}
	restore, ok := f.begin(lead)
	return f, restore, ok
}

// release returns f to Idle and drops it in one step, so the idle form is
// never visible to another claim.
func (fs *Forms) release(key string, f *Form, restore func()) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	restore()
	if fs.forms[key] == f {
		delete(fs.forms, key)
	}
}
