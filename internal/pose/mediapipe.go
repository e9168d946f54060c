package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// idleShutdown is how long the python service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// ErrServiceNotFound is returned when pose_service.py cannot be located.
var ErrServiceNotFound = errors.New("pose_service.py not found")

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
//
// Wire protocol, one round trip per frame:
//   - request: 4-byte big-endian length followed by a JPEG image on stdin
//   - response: one JSON line on stdout, {"landmarks": [...]} or {"landmarks": null}
type MediaPipeEstimator struct {
	config    Config
	script    string
	logger    *zap.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeEstimator creates a new MediaPipe pose estimator.
// The Python process is started lazily on first estimation.
func NewMediaPipeEstimator(config Config, logger *zap.Logger) (*MediaPipeEstimator, error) {
	script := config.Script
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MediaPipeEstimator{
		config: config,
		script: script,
		logger: logger,
	}, nil
}

// Estimate sends the frame to the service and decodes the returned pose.
func (e *MediaPipeEstimator) Estimate(frame *gocv.Mat) (*Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := e.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response jsonPose
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	e.resetIdleTimer()

	if len(response.Landmarks) == 0 {
		return nil, nil
	}
	return response.toSample(), nil
}

// Close shuts down the Python process.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *MediaPipeEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	e.cmd = exec.Command(python, e.script,
		"--model-complexity", strconv.Itoa(e.config.ModelComplexity),
		"--min-detection", strconv.FormatFloat(e.config.MinDetectionConf, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(e.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true
	e.logger.Info("pose service started", zap.String("script", e.script), zap.Int("pid", e.cmd.Process.Pid))

	return nil
}

func (e *MediaPipeEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	e.logger.Info("pose service stopped")
	return err
}

func (e *MediaPipeEstimator) resetIdleTimer() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(idleShutdown, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.shutdown(); err != nil {
			e.logger.Warn("pose service exit", zap.Error(err))
		}
	})
}

func findServiceScript() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return firstExisting(
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".padam/scripts/pose_service.py"),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".padam/venv/bin/python"),
	)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// jsonPose is the response shape of the Python service.
type jsonPose struct {
	Landmarks []Landmark `json:"landmarks"`
}

func (p jsonPose) toSample() *Sample {
	s := &Sample{}
	for i := 0; i < NumLandmarks && i < len(p.Landmarks); i++ {
		s.Landmarks[i] = p.Landmarks[i]
	}
	return s
}
