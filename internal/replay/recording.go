// Package replay feeds recorded pose sequences through the gesture engine
// and checks the detected moves against expectations. It backs the
// "padam replay" command and the engine regression tests.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/pose"
)

// ErrInvalidRecording is wrapped by every recording decode error.
var ErrInvalidRecording = errors.New("invalid recording")

// Expectation is a move that must be detected within a frame range,
// inclusive on both ends.
type Expectation struct {
	Move gesture.Move `json:"move"`
	From int          `json:"from"`
	To   int          `json:"to"`
}

// Recording is a pose sequence with the moves it should produce.
type Recording struct {
	Name    string        `json:"name"`
	Preset  string        `json:"preset"`
	FPS     float64       `json:"fps"`
	Expect  []Expectation `json:"expect"`
	Samples []pose.Sample `json:"-"`
}

// frame is the compact on-disk sample: one [x, y, z, visibility] row per
// landmark and an optional timestamp in milliseconds.
type frame struct {
	TimeMS    *float64     `json:"t_ms,omitempty"`
	Landmarks [][4]float64 `json:"landmarks"`
}

type recordingJSON struct {
	Recording
	Frames []frame `json:"frames"`
}

// Load reads a recording from a .json file.
func Load(path string) (*Recording, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rec, nil
}

// Decode parses a recording. Frames without a timestamp are spaced evenly at
// the recording's FPS.
func Decode(r io.Reader) (*Recording, error) {
	var raw recordingJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecording, err)
	}
	if raw.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps must be > 0, got %v", ErrInvalidRecording, raw.FPS)
	}
	for _, e := range raw.Expect {
		if !e.Move.Valid() {
			return nil, fmt.Errorf("%w: unknown move %q", ErrInvalidRecording, e.Move)
		}
		if e.To < e.From {
			return nil, fmt.Errorf("%w: %s range %d..%d is empty", ErrInvalidRecording, e.Move, e.From, e.To)
		}
	}

	rec := raw.Recording
	rec.Samples = make([]pose.Sample, len(raw.Frames))
	for i, fr := range raw.Frames {
		if len(fr.Landmarks) != pose.NumLandmarks {
			return nil, fmt.Errorf("%w: frame %d has %d landmarks, want %d",
				ErrInvalidRecording, i, len(fr.Landmarks), pose.NumLandmarks)
		}
		s := &rec.Samples[i]
		s.Index = i
		if fr.TimeMS != nil {
			s.Timestamp = time.Duration(math.Round(*fr.TimeMS * float64(time.Millisecond)))
		} else {
			s.Timestamp = time.Duration(math.Round(float64(i) / rec.FPS * float64(time.Second)))
		}
		for j, row := range fr.Landmarks {
			s.Landmarks[j] = pose.Landmark{X: row[0], Y: row[1], Z: row[2], Visibility: row[3]}
		}
	}
	return &rec, nil
}

// Encode writes the recording in the format Decode reads.
func (r *Recording) Encode(w io.Writer) error {
	raw := recordingJSON{Recording: *r, Frames: make([]frame, len(r.Samples))}
	for i, s := range r.Samples {
		ms := float64(s.Timestamp) / float64(time.Millisecond)
		raw.Frames[i].TimeMS = &ms
		raw.Frames[i].Landmarks = make([][4]float64, pose.NumLandmarks)
		for j, l := range s.Landmarks {
			raw.Frames[i].Landmarks[j] = [4]float64{l.X, l.Y, l.Z, l.Visibility}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	return nil
}

// Save writes the recording to path.
func (r *Recording) Save(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
