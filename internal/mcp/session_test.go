// ABOUTME: End-to-end tests for the stdio session loop
// ABOUTME: Covers framing, notifications, termination causes, and exact wire output

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

type failingWriter struct {
	failAll bool
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.failAll || len(p) > 0 {
		return 0, errors.New("broken pipe")
	}
	return 0, nil
}

func runSession(t *testing.T, s *Session, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	s.in = strings.NewReader(input)
	s.out = &out
	err := s.Run(context.Background())
	return out.String(), err
}

func outputLines(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(raw, "\n"), "\n")
}

func TestSessionRunEndToEnd(t *testing.T) {
	eng := &mockEngine{}
	s := newTestSession(t, eng, nil)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"clientInfo":{"name":"test","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"closeFile"}}`,
	}, "\n") + "\n"

	raw, err := runSession(t, s, input)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := outputLines(raw)
	if len(lines) != 3 {
		t.Fatalf("expected 3 response lines, got %d:\n%s", len(lines), raw)
	}

	for i, wantID := range []string{"1", "2", "3"} {
		var resp struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Result  json.RawMessage `json:"result"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal([]byte(lines[i]), &resp); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if resp.JSONRPC != "2.0" {
			t.Errorf("line %d: jsonrpc = %q", i, resp.JSONRPC)
		}
		if string(resp.ID) != wantID {
			t.Errorf("line %d: id = %s, want %s", i, resp.ID, wantID)
		}
		if resp.Result == nil || resp.Error != nil {
			t.Errorf("line %d: expected a success response: %s", i, lines[i])
		}
	}
}

func TestSessionExactDisassembleDenial(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)

	input := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"disassemble","arguments":{"address":"0x1000"}}}` + "\n"
	raw, err := runSession(t, s, input)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := `{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"No file is currently open. Please open a file first."}],"isError":true}}`
	lines := outputLines(raw)
	if len(lines) != 1 || lines[0] != want {
		t.Errorf("wire output:\n got %s\nwant %s", raw, want)
	}
}

func TestSessionMalformedLineDropped(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)

	input := "this is not json\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"
	raw, err := runSession(t, s, input)
	if err != nil {
		t.Fatalf("malformed input must not kill the session: %v", err)
	}

	lines := outputLines(raw)
	if len(lines) != 1 {
		t.Fatalf("expected 1 response line, got %d:\n%s", len(lines), raw)
	}
	if !strings.Contains(lines[0], `"id":1`) {
		t.Errorf("response line: %s", lines[0])
	}
}

func TestSessionMissingMethod(t *testing.T) {
	t.Run("with id answers invalid request", func(t *testing.T) {
		s := newTestSession(t, &mockEngine{}, nil)

		raw, err := runSession(t, s, `{"jsonrpc":"2.0","id":5}`+"\n")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		want := `{"jsonrpc":"2.0","id":5,"error":{"code":-32600,"message":"Invalid request: missing method"}}`
		lines := outputLines(raw)
		if len(lines) != 1 || lines[0] != want {
			t.Errorf("wire output:\n got %s\nwant %s", raw, want)
		}
	})

	t.Run("without id is dropped", func(t *testing.T) {
		s := newTestSession(t, &mockEngine{}, nil)

		raw, err := runSession(t, s, `{"jsonrpc":"2.0","params":{}}`+"\n")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if raw != "" {
			t.Errorf("expected no output, got %s", raw)
		}
	})
}

func TestSessionNotificationsProduceNoOutput(t *testing.T) {
	inputs := []string{
		`{"jsonrpc":"2.0","method":"ping"}`,
		`{"jsonrpc":"2.0","id":3.5,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":true,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":null,"method":"ping"}`,
	}

	for _, input := range inputs {
		s := newTestSession(t, &mockEngine{}, nil)
		raw, err := runSession(t, s, input+"\n")
		if err != nil {
			t.Fatalf("input %s: run failed: %v", input, err)
		}
		if raw != "" {
			t.Errorf("input %s: expected no output, got %s", input, raw)
		}
	}
}

func TestSessionChunkedInput(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)

	input := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n"

	var out bytes.Buffer
	s.in = iotest.OneByteReader(strings.NewReader(input))
	s.out = &out

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := outputLines(out.String())
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d:\n%s", len(lines), out.String())
	}
	for i, wantID := range []string{`"id":1`, `"id":2`} {
		if !strings.Contains(lines[i], wantID) {
			t.Errorf("line %d: %s", i, lines[i])
		}
	}
}

func TestSessionBufferOverflowTerminates(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)

	raw, err := runSession(t, s, strings.Repeat("a", readBufferMaxSize+1))
	if err == nil {
		t.Fatal("expected a framing error")
	}
	if !errors.Is(err, errBufferFull) {
		t.Errorf("expected errBufferFull, got %v", err)
	}
	if raw != "" {
		t.Errorf("expected no output, got %d bytes", len(raw))
	}
}

func TestSessionWriteFailureTerminates(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)
	s.probeInterval = time.Hour
	s.in = strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	s.out = &failingWriter{}

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "writing response") {
		t.Errorf("error = %v", err)
	}
}

func TestSessionProbeDetectsDisconnect(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)
	s.probeInterval = 5 * time.Millisecond

	r, w := io.Pipe()
	defer w.Close()
	s.in = r
	s.out = &failingWriter{failAll: true}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("disconnect is normal termination, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not detect the dead peer")
	}
}

func TestSessionContextCancel(t *testing.T) {
	s := newTestSession(t, &mockEngine{}, nil)

	r, w := io.Pipe()
	defer w.Close()
	s.in = r
	s.out = &bytes.Buffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancellation is normal termination, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not observe cancellation")
	}
}

func TestSessionStateCarriesAcrossRequests(t *testing.T) {
	eng := &mockEngine{replies: map[string]string{"pd 10 @ entry0": "ret"}}
	s := newTestSession(t, eng, nil)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"openFile","arguments":{"filePath":"/bin/true"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"disassemble","arguments":{"address":"entry0"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"closeFile"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"runCommand","arguments":{"command":"iI"}}}`,
	}, "\n") + "\n"

	raw, err := runSession(t, s, input)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := outputLines(raw)
	if len(lines) != 4 {
		t.Fatalf("expected 4 responses, got %d:\n%s", len(lines), raw)
	}
	if !strings.Contains(lines[0], "File opened successfully.") {
		t.Errorf("open response: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"ret"`) {
		t.Errorf("disassemble response: %s", lines[1])
	}
	if !strings.Contains(lines[2], "File closed successfully.") {
		t.Errorf("close response: %s", lines[2])
	}
	if !strings.Contains(lines[3], "No file is currently open.") {
		t.Errorf("post-close runCommand response: %s", lines[3])
	}
}
