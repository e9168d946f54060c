package gesture

import "github.com/ayusman/padam/internal/pose"

// History is the rolling window of samples, newest first. Once the first
// sample is pushed its length always equals the requested depth.
type History struct {
	samples []pose.Sample
}

// Push inserts s as the newest sample after resizing the window to depth.
// The first push fills the whole window with copies of s so the initial
// displacement is zero. A growing window repeats its oldest sample; a
// shrinking one drops the oldest entries.
func (h *History) Push(s pose.Sample, depth int) {
	depth = max(depth, 1)

	if len(h.samples) == 0 {
		h.samples = make([]pose.Sample, depth)
		for i := range h.samples {
			h.samples[i] = s
		}
		return
	}

	if depth > len(h.samples) {
		oldest := h.samples[len(h.samples)-1]
		for len(h.samples) < depth {
			h.samples = append(h.samples, oldest)
		}
	} else {
		h.samples = h.samples[:depth]
	}

	copy(h.samples[1:], h.samples[:depth-1])
	h.samples[0] = s
}

// Len returns the window depth, zero before the first push.
func (h *History) Len() int {
	return len(h.samples)
}

// Newest returns the most recent sample. It must not be called before Push.
func (h *History) Newest() *pose.Sample {
	return &h.samples[0]
}

// Oldest returns the sample at the far end of the window.
func (h *History) Oldest() *pose.Sample {
	return &h.samples[len(h.samples)-1]
}

// At returns the sample i frames back from the newest.
func (h *History) At(i int) *pose.Sample {
	return &h.samples[i]
}
