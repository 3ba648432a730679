package authorizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const defaultTimeout = 120 * time.Second

// Terminal prompts a human operator on the controlling terminal for an
// approve/reject decision. This is the one step of the pre pipeline
// expected to block for human-scale time.
type Terminal struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	logger  *zap.Logger
}

// NewTerminal creates a Terminal authorizer reading from stdin. A zero
// timeout uses the default of two minutes.
func NewTerminal(timeout time.Duration, logger *zap.Logger) *Terminal {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Terminal{
		in:      os.Stdin,
		out:     os.Stderr,
		timeout: timeout,
		logger:  logger,
	}
}

// NewTerminalWithStreams creates a Terminal bound to explicit streams,
// used by tests.
func NewTerminalWithStreams(in io.Reader, out io.Writer, timeout time.Duration, logger *zap.Logger) *Terminal {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Terminal{in: in, out: out, timeout: timeout, logger: logger}
}

// Authorize prints the pending operation and waits for y/N. Absence of a
// decision, a read failure, a timeout, or context cancellation all
// reject: the gate never fails open on a destructive operation.
func (t *Terminal) Authorize(ctx context.Context, req Request) (bool, error) {
	if f, ok := t.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		t.logger.Warn("authorization requested without a terminal, rejecting",
			zap.String("tool", req.Call.Name),
		)
		return false, nil
	}

	fmt.Fprintf(t.out, "\n[warden] destructive operation requires authorization\n")
	fmt.Fprintf(t.out, "  tool:    %s\n", req.Call.Name)
	if cmd := req.Call.Command(); cmd != "" {
		fmt.Fprintf(t.out, "  command: %s\n", cmd)
	}
	if p := req.Call.Path(); p != "" {
		fmt.Fprintf(t.out, "  path:    %s\n", p)
	}
	fmt.Fprintf(t.out, "  reason:  %s\n", req.Reason)
	fmt.Fprintf(t.out, "approve? [y/N] (auto-reject in %s): ", t.timeout)

	type answer struct {
		approved bool
		err      error
	}
	ch := make(chan answer, 1)

	go func() {
		reader := bufio.NewReader(t.in)
		line, err := reader.ReadString('\n')
		if err != nil {
			ch <- answer{err: err}
			return
		}
		line = strings.ToLower(strings.TrimSpace(line))
		ch <- answer{approved: line == "y" || line == "yes"}
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case a := <-ch:
		if a.err != nil {
			t.logger.Warn("reading authorization decision failed, rejecting", zap.Error(a.err))
			return false, nil
		}
		return a.approved, nil

	case <-timer.C:
		fmt.Fprintln(t.out, "\n[warden] authorization timed out, rejecting")
		return false, nil

	case <-ctx.Done():
		fmt.Fprintln(t.out, "\n[warden] session aborted, rejecting")
		return false, nil
	}
}
