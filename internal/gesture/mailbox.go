package gesture

import (
	"sync"
	"time"

	"github.com/ayusman/padam/internal/pose"
)

// angleReading is one knee flexion measurement and the capture time of the
// sample it was computed from.
type angleReading struct {
	angle float64
	at    time.Duration
}

// mailbox runs at most one flexion computation at a time and keeps only the
// latest result. The result is picked up on a later frame; a result that
// arrives late is still used.
type mailbox struct {
	mu      sync.Mutex
	running bool
	pending *angleReading
	wg      sync.WaitGroup
}

// submit starts a worker for s unless one is already running. It reports
// whether a worker was started.
func (m *mailbox) submit(s pose.Sample, compute func(*pose.Sample) float64) bool {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return false
	}
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		r := &angleReading{angle: compute(&s), at: s.Timestamp}

		m.mu.Lock()
		m.pending = r
		m.running = false
		m.mu.Unlock()
	}()
	return true
}

// take empties the slot and returns what was in it, possibly nil.
func (m *mailbox) take() *angleReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.pending
	m.pending = nil
	return r
}

// wait blocks until no worker is running.
func (m *mailbox) wait() {
	m.wg.Wait()
}
