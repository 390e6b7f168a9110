package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/agrivoice/internal/cli"
	"github.com/rbright/agrivoice/internal/config"
	"github.com/rbright/agrivoice/internal/ipc"
)

const (
	quickTimeout = 500 * time.Millisecond
	// slack covers IPC overhead on top of a backend or recognizer deadline.
	slack = 2 * time.Second
)

// errRemote carries a failed response so callers can print its display text.
type errRemote struct {
	resp ipc.Response
}

func (e errRemote) Error() string {
	return e.resp.Error
}

// forwardTimeout waits long enough for the server to finish the backend or
// recognizer call the command triggers.
func forwardTimeout(cfg config.Config, cmd cli.Command) time.Duration {
	switch cmd {
	case cli.CommandSubmit, cli.CommandFertilizer, cli.CommandAsk:
		return time.Duration(cfg.Backend.TimeoutMS)*time.Millisecond + slack
	case cli.CommandMic, cli.CommandLang, cli.CommandStop:
		return time.Duration(cfg.Recognizer.DialTimeoutMS)*time.Millisecond + slack
	default:
		return quickTimeout
	}
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"}, quickTimeout)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		r.printBody(resp)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, cfg config.Config, parsed cli.Parsed) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	req := ipc.Request{Command: string(parsed.Command), Args: parsed.Args}
	resp, handled, err := tryForward(ctx, socketPath, req, forwardTimeout(cfg, parsed.Command))
	if !handled {
		fmt.Fprintf(r.Stderr, "error: agrivoice is not running (start it with %q)\n", binaryName+" serve")
		return 1
	}
	if err != nil {
		var remote errRemote
		if errors.As(err, &remote) && remote.resp.Message != "" {
			fmt.Fprintf(r.Stderr, "error: %s\n", remote.resp.Message)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	r.printBody(resp)
	return 0
}

func (r Runner) printBody(resp ipc.Response) {
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	for _, line := range resp.Lines {
		fmt.Fprintln(r.Stdout, line)
	}
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errRemote{resp: resp}
	}

	if errors.Is(err, ipc.ErrNotRunning) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
