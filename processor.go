package flac

import (
	"sync"

	"github.com/flacio/flac/meta"
)

// Processor receives callbacks as a Stream decodes: once with the stream's
// StreamInfo as soon as it is known, then once per frame with that frame's
// packed PCM bytes.
//
// Both methods are called synchronously on the decoding goroutine and must
// not block; a processor wishing to stop decoding returns true from OnPCM to
// request an early, graceful stop.
type Processor interface {
	// OnStreamInfo is called once, before the first OnPCM call, with the
	// stream's StreamInfo block.
	OnStreamInfo(info *meta.StreamInfo)
	// OnPCM is called once per decoded frame with that frame's samples
	// packed as interleaved little-endian PCM. The slice is a borrowed view
	// valid only until OnPCM returns; a processor that needs to retain it
	// must copy. Returning true requests the driver to stop after this
	// frame.
	OnPCM(samples []byte) (stop bool)
}

// Registry is a thread-safe collection of Processors. Add and Remove may be
// called concurrently with each other and with a dispatch in progress;
// fireStreamInfo and firePCM never hold the registry's lock while invoking a
// processor, so a
// processor may safely add or remove itself (or another) from within a
// callback.
type Registry struct {
	mu         sync.Mutex
	processors []Processor
}

// Add registers p to receive future callbacks.
func (reg *Registry) Add(p Processor) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.processors = append(reg.processors, p)
}

// Remove unregisters p. A no-op if p was never added or already removed.
func (reg *Registry) Remove(p Processor) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for i, q := range reg.processors {
		if q == p {
			reg.processors = append(reg.processors[:i], reg.processors[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the current processor set, taken under lock, so
// that fireStreamInfo and firePCM can iterate without holding the lock across
// user code.
func (reg *Registry) snapshot() []Processor {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.processors) == 0 {
		return nil
	}
	cp := make([]Processor, len(reg.processors))
	copy(cp, reg.processors)
	return cp
}

// fireStreamInfo dispatches info to every registered processor.
func (reg *Registry) fireStreamInfo(info *meta.StreamInfo) {
	for _, p := range reg.snapshot() {
		p.OnStreamInfo(info)
	}
}

// firePCM dispatches samples to every registered processor and reports
// whether any of them requested a stop.
func (reg *Registry) firePCM(samples []byte) (stop bool) {
	for _, p := range reg.snapshot() {
		if p.OnPCM(samples) {
			stop = true
		}
	}
	return stop
}
