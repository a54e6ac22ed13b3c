// ABOUTME: Radare2 subprocess engine driven over the r2pipe wire protocol
// ABOUTME: Spawns radare2 -q0, writes commands, reads NUL-terminated replies

package r2

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrOpenFailed is returned when radare2 reports no open file descriptor
// after an open attempt.
var ErrOpenFailed = errors.New("radare2 did not open the file")

// ErrClosed is returned for operations on an engine that has been shut down.
var ErrClosed = errors.New("engine is closed")

// Engine drives a single long-lived radare2 subprocess. Commands are written
// to its stdin and replies read from its stdout, each reply terminated by a
// NUL byte (radare2's -0 pipe mode). Callers are expected to issue one
// command at a time; the session loop is single-threaded so this holds
// without locking.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	logger *slog.Logger
	closed bool

	relocsApply bool
	binCache    bool
}

// Options configure engine startup.
type Options struct {
	Binary      string        // radare2 executable, default "radare2"
	InitTimeout time.Duration // startup handshake deadline, default 10s
	RelocsApply bool          // set bin.relocs.apply when opening files
	BinCache    bool          // set bin.cache when opening files
}

// New spawns the radare2 subprocess with no file loaded and waits for its
// readiness handshake (the initial NUL byte). The returned engine owns the
// subprocess until Close.
func New(opts Options) (*Engine, error) {
	if opts.Binary == "" {
		opts.Binary = "radare2"
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = 10 * time.Second
	}

	logger := slog.Default().With("component", "r2")

	cmd := exec.Command(opts.Binary, "-q0", "-e", "scr.color=0", "--")
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", opts.Binary, err)
	}

	e := &Engine{
		cmd:         cmd,
		stdin:       stdin,
		stdout:      bufio.NewReader(stdoutPipe),
		logger:      logger,
		relocsApply: opts.RelocsApply,
		binCache:    opts.BinCache,
	}

	// Readiness handshake: radare2 prints a NUL once initialized.
	ready := make(chan error, 1)
	go func() {
		_, err := e.stdout.ReadString(0)
		ready <- err
	}()

	select {
	case err := <-ready:
		if err != nil {
			e.kill()
			return nil, fmt.Errorf("radare2 handshake: %w", err)
		}
	case <-time.After(opts.InitTimeout):
		e.kill()
		return nil, fmt.Errorf("radare2 not ready after %s", opts.InitTimeout)
	}

	logger.Info("radare2 engine initialized", "binary", opts.Binary)
	return e, nil
}

// Cmd sends a command verbatim and returns its output with the trailing
// newline and NUL terminator stripped. A command may span several lines;
// radare2 answers each line with its own NUL-terminated reply, so every
// reply is drained and the outputs joined in order. Blocks until radare2
// replies; there is no per-command deadline.
func (e *Engine) Cmd(command string) (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	if strings.ContainsRune(command, '\x00') {
		return "", errors.New("command contains a NUL byte")
	}

	if _, err := io.WriteString(e.stdin, command+"\n"); err != nil {
		return "", fmt.Errorf("writing command: %w", err)
	}

	lines := strings.Count(command, "\n") + 1
	var out strings.Builder
	for i := 0; i < lines; i++ {
		reply, err := e.stdout.ReadString(0)
		if err != nil {
			return "", fmt.Errorf("reading reply: %w", err)
		}
		out.WriteString(strings.TrimSuffix(reply, "\x00"))
	}

	return strings.TrimRight(out.String(), "\n"), nil
}

// Open loads a file into the engine, closing any previously open one first.
// Binary settings are applied before the open so relocation and cache
// behavior take effect during loading. Success is verified against the
// open-descriptor listing rather than the open command's own output.
func (e *Engine) Open(path string) error {
	e.logger.Info("opening file", "path", path)

	if _, err := e.Cmd("o-*"); err != nil {
		return fmt.Errorf("closing previous file: %w", err)
	}

	if e.relocsApply {
		if _, err := e.Cmd("e bin.relocs.apply=true"); err != nil {
			return fmt.Errorf("configuring relocs: %w", err)
		}
	}
	if e.binCache {
		if _, err := e.Cmd("e bin.cache=true"); err != nil {
			return fmt.Errorf("configuring bin cache: %w", err)
		}
	}

	if _, err := e.Cmd("o " + path); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	// "o" lists open descriptors; an empty listing means the open failed.
	listing, err := e.Cmd("o")
	if err != nil {
		return fmt.Errorf("checking open descriptors: %w", err)
	}
	if strings.TrimSpace(listing) == "" {
		e.logger.Warn("file did not open", "path", path)
		return ErrOpenFailed
	}

	if _, err := e.Cmd("ob"); err != nil {
		return fmt.Errorf("selecting binary: %w", err)
	}

	e.logger.Info("file opened", "path", path)
	return nil
}

// CloseAll closes every open file descriptor. Idempotent.
func (e *Engine) CloseAll() error {
	if _, err := e.Cmd("o-*"); err != nil {
		return fmt.Errorf("closing files: %w", err)
	}
	return nil
}

// AnalyzeLevel runs the given analysis level token (a, aa, aaa, aaaa) as a
// command. Output is discarded; analysis results are queried afterwards
// with ordinary commands.
func (e *Engine) AnalyzeLevel(level string) error {
	if _, err := e.Cmd(level); err != nil {
		return fmt.Errorf("running analysis %q: %w", level, err)
	}
	return nil
}

// Close shuts the subprocess down: stdin is closed so radare2 exits on EOF,
// with a kill fallback if it lingers. Safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.logger.Warn("radare2 did not exit, killing")
		e.cmd.Process.Kill()
		<-done
	}

	e.logger.Info("radare2 engine closed")
	return nil
}

// kill tears down a half-constructed engine during New.
func (e *Engine) kill() {
	e.closed = true
	e.stdin.Close()
	e.cmd.Process.Kill()
	e.cmd.Wait()
}
