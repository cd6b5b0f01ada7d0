// ABOUTME: Stdio tool server serving newline-delimited JSON tool requests
// ABOUTME: Reads Requests from stdin, executes them, writes Responses to stdout

package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/tessellated/taskchat/internal/tools"
)

// Server reads tool requests line by line, executes them in-process, and
// writes one response line per request. It is the child-process half of
// the subprocess tool transport: logs go to stderr, the protocol owns
// stdout.
type Server struct {
	executor tools.Executor
	logger   *slog.Logger

	in  io.Reader
	out io.Writer
}

// New creates a tool server reading requests from in and writing
// responses to out
func New(executor tools.Executor, in io.Reader, out io.Writer) *Server {
	return &Server{
		executor: executor,
		logger:   slog.Default().With("component", "toolserver"),
		in:       in,
		out:      out,
	}
}

// Run processes requests until the input closes or the context is
// cancelled. Requests are handled sequentially; the client serializes
// calls on its side too.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	s.logger.Info("tool server ready")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req tools.Request
		if err := json.Unmarshal(line, &req); err != nil {
			// No ID to correlate a reply with; all we can do is log.
			s.logger.Warn("discarding malformed request line", "error", err)
			continue
		}

		resp := s.handle(ctx, req)
		if err := s.write(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}

	s.logger.Info("tool server input closed, exiting")
	return nil
}

func (s *Server) handle(ctx context.Context, req tools.Request) tools.Response {
	if req.ID == "" {
		// Can't be correlated by the client, but answer anyway so the
		// failure is visible.
		return tools.Response{Success: false, Error: "request id is required"}
	}
	if req.UserID == "" {
		return tools.Response{ID: req.ID, Success: false, Error: "user_id is required"}
	}

	s.logger.Debug("handling tool request", "id", req.ID, "tool", req.Tool, "user_id", req.UserID)

	outcome, err := s.executor.Call(ctx, req.UserID, req.Tool, req.Arguments)
	if err != nil {
		// Executor errors are transport-level; report them in-band so
		// the client isn't left waiting.
		s.logger.Error("tool execution failed", "id", req.ID, "tool", req.Tool, "error", err)
		return tools.Response{ID: req.ID, Success: false, Error: "internal error executing " + req.Tool}
	}

	return tools.Response{
		ID:      req.ID,
		Success: outcome.Success,
		Data:    outcome.Data,
		Error:   outcome.Error,
	}
}

func (s *Server) write(resp tools.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	_, err = s.out.Write(append(data, '\n'))
	return err
}
