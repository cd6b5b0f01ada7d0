// ABOUTME: Out-of-process tool executor speaking newline-delimited JSON over stdio
// ABOUTME: Spawns the tool server lazily and correlates responses by request ID

package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request is one tool invocation on the wire. Each line written to the
// tool server's stdin is one JSON-encoded Request.
type Request struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	UserID    string `json:"user_id"`
}

// Response is one tool result on the wire. Each line read from the tool
// server's stdout is one JSON-encoded Response, matched to its Request
// by ID.
type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SubprocessConfig configures a subprocess tool executor
type SubprocessConfig struct {
	// Command is the tool server executable to run
	Command string

	// Args are command-line arguments passed to the executable
	Args []string

	// Dir is the working directory for the subprocess. Empty means the
	// parent's working directory.
	Dir string

	// Env are additional environment variables for the subprocess
	// (format: "KEY=VALUE"), appended to the current environment
	Env []string

	// Logger is the structured logger for transport diagnostics
	Logger *slog.Logger
}

// SubprocessExecutor runs tools in a separate process, exchanging
// newline-delimited JSON over the child's stdin and stdout. The child is
// started on the first call and survives individual request timeouts; it
// is only terminated by Close or after a transport failure.
type SubprocessExecutor struct {
	config SubprocessConfig
	logger *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
}

// NewSubprocessExecutor creates a subprocess executor for the given
// config. The tool server is not started until the first Call.
func NewSubprocessExecutor(cfg SubprocessConfig) *SubprocessExecutor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "tools")
	}
	return &SubprocessExecutor{
		config: cfg,
		logger: logger,
	}
}

// start launches the tool server if it is not already running. The
// subprocess lifecycle is independent of call contexts. Caller must
// hold e.mu.
func (e *SubprocessExecutor) start(_ context.Context) error {
	if e.reader != nil && (e.cmd == nil || e.cmd.ProcessState == nil) {
		// Already connected.
		return nil
	}

	e.logger.Info("starting tool server",
		"command", e.config.Command,
		"args", e.config.Args,
	)

	cmd := exec.Command(e.config.Command, e.config.Args...)
	cmd.Dir = e.config.Dir
	cmd.Env = append(os.Environ(), e.config.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Stderr carries the tool server's logs, not protocol traffic.
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stderrPipe.Close()
		stdout.Close()
		stdin.Close()
		return fmt.Errorf("start tool server %s: %w", e.config.Command, err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.reader = bufio.NewReaderSize(stdout, 1<<20)

	go e.drainStderr(stderrPipe)

	e.logger.Info("tool server started", "pid", cmd.Process.Pid)
	return nil
}

// drainStderr reads stderr lines and logs them at debug level
func (e *SubprocessExecutor) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		e.logger.Debug("tool server stderr", "line", scanner.Text())
	}
}

type readResult struct {
	line []byte
	err  error
}

// Call sends one request over stdin and reads lines from stdout until a
// response with a matching ID arrives. The mutex serializes calls since
// stdio is inherently sequential. The read runs in a goroutine so that
// context cancellation can interrupt a blocking read.
//
// Per-call transport failures (crashed process, broken pipe, timeout)
// come back as unsuccessful Outcomes so one broken call never aborts
// the caller's turn; the process is killed and restarts lazily on the
// next call. Only a failure to spawn the tool server at all is
// returned as an error.
func (e *SubprocessExecutor) Call(ctx context.Context, userID, tool, arguments string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.start(ctx); err != nil {
		return Outcome{}, err
	}

	req := Request{
		ID:        uuid.New().String(),
		Tool:      tool,
		Arguments: arguments,
		UserID:    userID,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return e.transportFail(tool, fmt.Errorf("marshal request: %w", err)), nil
	}

	if _, err := e.stdin.Write(append(data, '\n')); err != nil {
		e.cleanup()
		return e.transportFail(tool, fmt.Errorf("write to tool server stdin: %w", err)), nil
	}

	for {
		ch := make(chan readResult, 1)
		go func() {
			line, readErr := e.reader.ReadBytes('\n')
			ch <- readResult{line: line, err: readErr}
		}()

		select {
		case <-ctx.Done():
			// Kill the subprocess so the blocked read unblocks.
			e.cleanup()
			return e.transportFail(tool, ctx.Err()), nil
		case res := <-ch:
			if res.err != nil {
				e.cleanup()
				return e.transportFail(tool, fmt.Errorf("read from tool server stdout: %w", res.err)), nil
			}

			var resp Response
			if err := json.Unmarshal(res.line, &resp); err != nil {
				e.logger.Debug("skipping non-JSON line from tool server",
					"line", string(res.line),
				)
				continue
			}

			if resp.ID == req.ID {
				return Outcome{
					Success: resp.Success,
					Data:    resp.Data,
					Error:   resp.Error,
				}, nil
			}

			e.logger.Debug("skipping unmatched tool server response", "id", resp.ID)
		}
	}
}

// transportFail logs the underlying transport error and builds the
// failure outcome shown to the model
func (e *SubprocessExecutor) transportFail(tool string, err error) Outcome {
	e.logger.Error("tool server transport failure", "tool", tool, "error", err)
	return Fail("internal error executing " + tool)
}

// Close terminates the tool server and releases resources
func (e *SubprocessExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stop()
}

// stop terminates the subprocess. Caller must hold e.mu.
func (e *SubprocessExecutor) stop() error {
	if e.cmd == nil || e.cmd.Process == nil {
		e.reader = nil
		e.stdin = nil
		return nil
	}

	e.logger.Info("stopping tool server", "pid", e.cmd.Process.Pid)

	// Closing stdin signals the tool server to exit.
	if e.stdin != nil {
		e.stdin.Close()
	}

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case err := <-done:
		e.cmd = nil
		e.reader = nil
		e.stdin = nil
		return err
	case <-time.After(5 * time.Second):
		e.logger.Warn("tool server did not exit gracefully, killing",
			"pid", e.cmd.Process.Pid,
		)
		_ = e.cmd.Process.Kill()
		<-done
		e.cmd = nil
		e.reader = nil
		e.stdin = nil
		return nil
	}
}

// cleanup resets process state after a failure. Caller must hold e.mu.
func (e *SubprocessExecutor) cleanup() {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		_ = e.cmd.Wait()
	}
	e.cmd = nil
	e.stdin = nil
	e.reader = nil
}

var _ Executor = (*SubprocessExecutor)(nil)
