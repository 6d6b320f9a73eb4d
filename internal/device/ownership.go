// ABOUTME: Single-owner token for the shared audio device
// ABOUTME: Only the owning engine instance may issue device calls
package device

import "sync"

// Ownership arbitrates which engine instance drives the shared audio
// device. Multiple sequence monitors can exist at once; exactly one may
// own audio, and ownership is explicit — never implicit.
type Ownership struct {
	mu    sync.Mutex
	owner string
}

// NewOwnership creates an unowned token.
func NewOwnership() *Ownership {
	return &Ownership{}
}

// Acquire takes ownership for id. Returns false if another id holds it.
// Re-acquiring by the current owner succeeds.
func (o *Ownership) Acquire(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner != "" && o.owner != id {
		return false
	}
	o.owner = id
	return true
}

// Release gives up ownership. A release by a non-owner is ignored.
func (o *Ownership) Release(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner == id {
		o.owner = ""
	}
}

// Owns reports whether id currently holds the device.
func (o *Ownership) Owns(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner == id
}

// Holder returns the current owner id, empty when unowned.
func (o *Ownership) Holder() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner
}
