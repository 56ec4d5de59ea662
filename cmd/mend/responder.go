package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"mend/internal/approval"
)

// terminalResponder resolves approval requests by prompting on the
// terminal. Reads happen on a goroutine so context cancellation can
// interrupt a pending prompt.
type terminalResponder struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalResponder(in io.Reader, out io.Writer) *terminalResponder {
	return &terminalResponder{in: bufio.NewReader(in), out: out}
}

func (r *terminalResponder) Respond(ctx context.Context, req *approval.Request) (approval.Decision, error) {
	fmt.Fprintf(r.out, "\n[%s] %s requests approval:\n%s\n", req.Kind, req.Tool, req.Payload)
	fmt.Fprint(r.out, "Approve? [y]es / [n]o / [a]lways / ne[v]er: ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := r.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return approval.DecisionDeny, ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return approval.DecisionDeny, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return approval.DecisionApprove, nil
		case "a", "always":
			return approval.DecisionApproveSession, nil
		case "v", "never":
			return approval.DecisionDenySession, nil
		default:
			return approval.DecisionDeny, nil
		}
	}
}

// Preview shows streaming tool activity without blocking the task.
func (r *terminalResponder) Preview(req *approval.Request) {
	payload := req.Payload
	if len(payload) > 120 {
		payload = payload[:117] + "..."
	}
	fmt.Fprintf(r.out, "\r%s: %s", req.Tool, payload)
}
