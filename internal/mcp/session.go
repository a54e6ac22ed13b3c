// ABOUTME: Single-client stdio session loop: read, decode, dispatch, reply
// ABOUTME: One goroutine reads stdin; all state is mutated on the loop goroutine

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/2389/r2-mcp/internal/store"
)

const (
	serverName         = "Radare2 MCP Connector"
	serverVersion      = "1.0.0"
	serverInstructions = "Use this server to analyze binaries with radare2"
)

const (
	readChunkSize        = 4096
	defaultProbeInterval = 100 * time.Millisecond
)

// Engine is the analysis backend tool execution runs against.
type Engine interface {
	Cmd(command string) (string, error)
	Open(path string) error
	CloseAll() error
	AnalyzeLevel(level string) error
}

// Recorder persists tool invocations for the history log. A nil Recorder
// disables recording.
type Recorder interface {
	RecordInvocation(ctx context.Context, inv *store.ToolInvocation) error
}

// Session is one MCP conversation over stdin/stdout. All request
// processing happens on the goroutine that calls Run; request N is fully
// handled, reply written, before request N+1 is read, so the session state
// needs no locking.
type Session struct {
	id       string
	engine   Engine
	recorder Recorder
	logger   *slog.Logger

	in  io.Reader
	out io.Writer

	buf    *readBuffer
	caps   serverCapabilities
	client clientState

	fileOpen    bool
	currentFile string

	probeInterval time.Duration
}

// NewSession builds a session bound to the process stdin and stdout.
func NewSession(engine Engine, recorder Recorder) *Session {
	return &Session{
		id:            uuid.New().String(),
		engine:        engine,
		recorder:      recorder,
		logger:        slog.Default().With("component", "mcp"),
		in:            os.Stdin,
		out:           os.Stdout,
		buf:           newReadBuffer(),
		caps:          defaultServerCapabilities(),
		probeInterval: defaultProbeInterval,
	}
}

// Run processes requests until stdin ends, the peer disappears, the
// context is canceled, or the stream becomes unusable. EOF, disconnect,
// and cancellation are normal termination; write failures, fatal read
// errors, and framing overflow are returned as errors.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started", "session_id", s.id)
	defer s.logger.Info("session terminated", "session_id", s.id)

	done := make(chan struct{})
	defer close(done)

	chunks := make(chan []byte)
	readErrs := make(chan error, 1)
	go s.readLoop(done, chunks, readErrs)

	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("interrupt received, shutting down")
			return nil

		case err := <-readErrs:
			if errors.Is(err, io.EOF) {
				s.logger.Info("end of input stream")
				return nil
			}
			return fmt.Errorf("reading stdin: %w", err)

		case chunk := <-chunks:
			if err := s.buf.Append(chunk); err != nil {
				return fmt.Errorf("framing: %w", err)
			}
			if err := s.drain(ctx); err != nil {
				return err
			}

		case <-ticker.C:
			// Zero-length write probes whether the peer still holds the
			// other end of stdout.
			if _, err := s.out.Write(nil); err != nil {
				s.logger.Info("client disconnected, stdout closed")
				return nil
			}
		}
	}
}

// readLoop performs blocking chunk reads off the session input and hands
// them to the processing loop. It stops when the input errors out or the
// session is done.
func (s *Session) readLoop(done <-chan struct{}, chunks chan<- []byte, readErrs chan<- error) {
	for {
		buf := make([]byte, readChunkSize)
		n, err := s.in.Read(buf)
		if n > 0 {
			select {
			case chunks <- buf[:n]:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case readErrs <- err:
			case <-done:
			}
			return
		}
	}
}

// drain processes every complete line currently buffered.
func (s *Session) drain(ctx context.Context) error {
	for {
		line := s.buf.NextLine()
		if line == nil {
			return nil
		}
		if err := s.handleLine(ctx, line); err != nil {
			return err
		}
	}
}

// handleLine decodes and answers a single framed message. Unparsable
// lines are logged and dropped without a reply. A request missing its
// method gets an invalid-request error when it carries an id and is
// dropped otherwise. Requests without an id are notifications and never
// produce output.
func (s *Session) handleLine(ctx context.Context, line []byte) error {
	req, err := decodeRequest(line)
	switch {
	case errors.Is(err, errMalformed):
		s.logger.Warn("invalid JSON", "error", err)
		return nil
	case errors.Is(err, errInvalidRequest):
		if !req.ID.Present() {
			s.logger.Warn("invalid request: missing method")
			return nil
		}
		return s.writeResponse(errorResponse(req.ID, codeInvalidRequest, "Invalid request: missing method"))
	}

	if !req.ID.Present() {
		s.logger.Debug("ignoring notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", req.ID.String())
	return s.writeResponse(s.dispatch(ctx, req))
}

// writeResponse emits one response line. A write failure means the
// response stream is gone and the session cannot continue.
func (s *Session) writeResponse(resp *JSONRPCResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := s.out.Write(payload); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
