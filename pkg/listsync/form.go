package listsync

import "sync"

// Form guards a submit affordance: at most one outstanding write per form.
// This is a courtesy to the user, not a store guarantee. Callers pair Begin
// with a deferred End so the affordance is re-enabled on every outcome.
type Form struct {
	mu   sync.Mutex
	busy bool
}

func (f *Form) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	f.busy = true
	return nil
}

func (f *Form) End() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}
