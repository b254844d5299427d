package channel

import (
	"errors"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
)

// defaultSoTimeout is the bounded wait each poller turn uses, so the owning
// event loop can interleave other channels and honor cancellation/close
// instead of blocking indefinitely inside one kernel call.
const defaultSoTimeout = time.Second

// poller drives one readiness dimension (read, write or connect) by
// applying and clearing a deadline around a single blocking kernel call.
// The underlying socket already rides Go's runtime network poller through
// an os.File-backed descriptor (see fd.go's "only trough os.File we can
// take advantage of the runtime network poller" remark); three independent
// pollers over that one fd are therefore three independent bounded-deadline
// waits, not a second hand-rolled epoll layer duplicating the runtime's.
type poller struct {
	timeout time.Duration
	closed  atomic.Bool
}

func newPoller(timeout time.Duration) *poller {
	if timeout <= 0 {
		timeout = defaultSoTimeout
	}
	return &poller{timeout: timeout}
}

// close marks the poller closed; further waitAndDo calls fail fast with
// ErrClosedChannel instead of touching the (possibly already-closed) fd.
func (p *poller) close() error {
	p.closed.Store(true)
	return nil
}

func (p *poller) isClosed() bool { return p.closed.Load() }

// waitAndDo bounds do() to the poller's timeout via setDeadline, runs it,
// and reports whether anything was actually selected this turn: a pure
// deadline expiry is reported as (false, nil), matching "nothing ready",
// while any other error propagates to the caller.
func (p *poller) waitAndDo(setDeadline func(time.Time) error, do func() error) (selected bool, err error) {
	if p.isClosed() {
		return false, ErrClosedChannel
	}
	if setDeadline != nil {
		if err := setDeadline(time.Now().Add(p.timeout)); err != nil {
			return false, err
		}
	}
	if err := do(); err != nil {
		if isTimeout(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// readiness bundles the three independent pollers a channel registers
// against its single socket: read-ready, write-ready and connect-ready.
type readiness struct {
	read    *poller
	write   *poller
	connect *poller
}

func newReadiness(soTimeout time.Duration) *readiness {
	return &readiness{
		read:    newPoller(soTimeout),
		write:   newPoller(soTimeout),
		connect: newPoller(soTimeout),
	}
}

// closeAll closes all three pollers independently; a failure on one does
// not prevent the others from being closed. Every failure is logged by the
// caller and aggregated here for callers that want the full picture.
func (r *readiness) closeAll() error {
	var result *multierror.Error
	if err := r.read.close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.write.close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := r.connect.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
