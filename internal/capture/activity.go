package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultHoldFrames is how many still frames keep the gate open after
	// the last motion.
	DefaultHoldFrames = 45
)

// ActivityGate decides whether someone is moving in front of the camera.
// The pipeline runs pose estimation at the active rate while the gate is
// open and drops to the idle rate once the scene has been still for a while.
type ActivityGate struct {
	threshold   float64
	holdFrames  int
	prevGray    gocv.Mat
	initialized bool
	open        bool
	still       int
	lastChange  float64
	mu          sync.Mutex
}

// NewActivityGate creates a gate that opens when more than threshold percent
// of the pixels change between frames and closes after holdFrames still
// frames. For example, a threshold of 1.0 means 1% of pixels must change.
func NewActivityGate(threshold float64, holdFrames int) *ActivityGate {
	if holdFrames <= 0 {
		holdFrames = DefaultHoldFrames
	}
	return &ActivityGate{
		threshold:  threshold,
		holdFrames: holdFrames,
		prevGray:   gocv.NewMat(),
	}
}

// Observe feeds one frame and returns whether the gate is open.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur (21x21) to reduce noise
// 3. If first frame, store as baseline and keep the gate closed
// 4. Calculate absolute difference with previous frame
// 5. Threshold the difference (threshold=25)
// 6. Count non-zero pixels / total pixels = changePercent
// 7. Open on changePercent > threshold; close after holdFrames still frames
func (g *ActivityGate) Observe(frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	moved, change := g.diff(frame)
	g.lastChange = change

	if moved {
		g.open = true
		g.still = 0
		return true
	}

	g.still++
	if g.still >= g.holdFrames {
		g.open = false
	}
	return g.open
}

func (g *ActivityGate) diff(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.initialized {
		blurred.CopyTo(&g.prevGray)
		g.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&g.prevGray)

	return changePercent > g.threshold, changePercent
}

// IsOpen reports the gate state after the last observed frame.
func (g *ActivityGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// LastChange returns the changed-pixel percentage of the last frame.
func (g *ActivityGate) LastChange() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastChange
}

// Reset clears the baseline frame and closes the gate.
func (g *ActivityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

// Close releases the baseline frame.
func (g *ActivityGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

func (g *ActivityGate) clear() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
	g.open = false
	g.still = 0
}

// SetThreshold sets the percentage of pixels that must change to open the
// gate. Values less than or equal to 0 are ignored.
func (g *ActivityGate) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.threshold = threshold
}
