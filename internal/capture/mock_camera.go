package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing. Frames are stamped
// as if captured at the configured rate; changing the rate mid-playback
// keeps timestamps increasing.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	seq     int
	elapsed time.Duration
	loop    bool
	fps     int
	mu      sync.Mutex
	running bool
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    ActiveFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	c.seq = 0
	c.elapsed = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, fmt.Errorf("%w: no frames loaded", ErrNoFrame)
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, fmt.Errorf("%w: playback finished", ErrNoFrame)
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	mat := c.frames[c.index].Clone()
	c.index++

	f := &Frame{
		Mat:       &mat,
		Seq:       c.seq,
		Timestamp: c.elapsed,
	}
	c.seq++
	c.elapsed += time.Second / time.Duration(c.fps)
	return f, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
	c.seq = 0
	c.elapsed = 0
}
