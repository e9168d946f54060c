package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/padam/internal/pose"
)

const streamInterval = 66 * time.Millisecond // ~15 FPS

// Snapshot is the newest frame seen by the pipeline.
type Snapshot struct {
	Frame  gocv.Mat
	Sample *pose.Sample
	Label  string
}

// FrameSource hands out copies of the newest pipeline frame. The caller
// owns the returned Mat and must close it.
type FrameSource interface {
	Latest() (Snapshot, bool)
}

// StreamHandler serves the pipeline frames as MJPEG with the detected
// skeleton drawn on top.
type StreamHandler struct {
	source     FrameSource
	visibility float64
	interval   time.Duration
}

// NewStreamHandler creates a StreamHandler over source.
func NewStreamHandler(source FrameSource, visibility float64) *StreamHandler {
	return &StreamHandler{source: source, visibility: visibility, interval: streamInterval}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap, ok := h.source.Latest()
		if !ok {
			continue
		}
		err := h.writeFrame(w, snap)
		snap.Frame.Close()
		if err != nil {
			return
		}
	}
}

func (h *StreamHandler) writeFrame(w http.ResponseWriter, snap Snapshot) error {
	DrawSkeleton(&snap.Frame, snap.Sample, h.visibility)
	DrawLabel(&snap.Frame, snap.Label)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, snap.Frame)
	if err != nil {
		return nil
	}
	defer buf.Close()

	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len()); err != nil {
		return err
	}
	if _, err := w.Write(buf.GetBytes()); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
