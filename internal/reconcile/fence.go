package reconcile

// Token is a generation captured before issuing a request for a keyed
// resource. A response is applied only if its token is still current when
// it arrives.
type Token uint64

// Fence issues and validates per-resource generation tokens. In-flight
// network calls are never cancelled when their context becomes stale;
// discarding their eventual result through the fence is the only
// cancellation mechanism.
//
// The Fence is not safe for concurrent use; like the Engine it belongs to
// the event loop.
type Fence struct {
	gens map[string]Token
}

// NewFence creates an empty fence.
func NewFence() *Fence {
	return &Fence{gens: make(map[string]Token)}
}

// Begin returns the current generation for key. Callers capture the token
// before issuing a request and carry it with the completion message.
func (f *Fence) Begin(key string) Token {
	return f.gens[key]
}

// Switch increments the generation for key, invalidating every token issued
// before the call, and returns the new generation.
func (f *Fence) Switch(key string) Token {
	f.gens[key]++
	return f.gens[key]
}

// Current reports whether token is still the live generation for key.
// When it returns false, every side effect the response would have had
// (assigning data, clearing a loading flag, surfacing an error) must be
// skipped, each independently.
func (f *Fence) Current(key string, token Token) bool {
	return f.gens[key] == token
}
