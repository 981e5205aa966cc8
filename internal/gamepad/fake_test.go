package gamepad

import "sync"

// fakeAPI is a hand-written test double standing in for a
// go.uber.org/mock-generated mock (no code generation runs in this
// build). present tracks which slots currently answer successfully;
// tests mutate it directly to simulate plug/unplug.
type fakeAPI struct {
	mu      sync.Mutex
	present map[Index]bool
}

func newFakeAPI(initial ...Index) *fakeAPI {
	f := &fakeAPI{present: make(map[Index]bool)}
	for _, slot := range initial {
		f.present[slot] = true
	}
	return f
}

func (f *fakeAPI) plug(slot Index) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[slot] = true
}

func (f *fakeAPI) unplug(slot Index) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.present[slot] = false
}

func (f *fakeAPI) GetState(slot Index) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.present[slot] {
		return nil
	}
	return errNotPresent
}

type notPresentError struct{}

func (notPresentError) Error() string { return "gamepad: slot not present" }

var errNotPresent = notPresentError{}
