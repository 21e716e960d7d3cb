package failure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "connection lost" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

var _ net.Error = (*fakeNetError)(nil)

func TestIsBreakerFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "validation error", err: fmt.Errorf("invalid payload: %w", errors.New("missing field")), want: false},
		{name: "status 500", err: &StatusError{Code: 500, Message: "internal"}, want: true},
		{name: "status 502", err: &StatusError{Code: 502, Message: "bad gateway"}, want: true},
		{name: "status 599", err: &StatusError{Code: 599, Message: "network timeout"}, want: true},
		{name: "status 404", err: &StatusError{Code: 404, Message: "not found"}, want: false},
		{name: "status 429", err: &StatusError{Code: 429, Message: "too many requests"}, want: false},
		{name: "status 400", err: &StatusError{Code: 400, Message: "bad request"}, want: false},
		{name: "wrapped status 503", err: fmt.Errorf("upstream: %w", &StatusError{Code: 503}), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "net timeout", err: &fakeNetError{timeout: true}, want: true},
		{name: "net non-timeout", err: &fakeNetError{timeout: false}, want: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "broken pipe", err: syscall.EPIPE, want: true},
		{name: "syscall timeout", err: syscall.ETIMEDOUT, want: true},
		{name: "os syscall error", err: os.NewSyscallError("connect", syscall.ECONNREFUSED), want: true},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, want: true},
		{name: "closed pipe", err: io.ErrClosedPipe, want: true},
		{name: "context canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBreakerFailure(tt.err); got != tt.want {
				t.Errorf("IsBreakerFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsBreakerFailureDeterministic(t *testing.T) {
	errs := []error{
		&StatusError{Code: 500},
		&StatusError{Code: 404},
		context.DeadlineExceeded,
		errors.New("arbitrary"),
		&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
	}
	for _, err := range errs {
		first := IsBreakerFailure(err)
		for i := 0; i < 10; i++ {
			if got := IsBreakerFailure(err); got != first {
				t.Fatalf("IsBreakerFailure(%v) flapped: %v then %v", err, first, got)
			}
		}
	}
}

func TestIsRetryableMatchesBreakerFailure(t *testing.T) {
	errs := []error{
		nil,
		&StatusError{Code: 500},
		&StatusError{Code: 422},
		context.DeadlineExceeded,
		syscall.ECONNRESET,
		errors.New("boom"),
	}
	for _, err := range errs {
		if IsRetryable(err) != IsBreakerFailure(err) {
			t.Errorf("IsRetryable(%v) diverges from IsBreakerFailure", err)
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Code: 503, Message: "upstream unavailable"}
	if err.StatusCode() != 503 {
		t.Errorf("StatusCode() = %d, want 503", err.StatusCode())
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}

	var coder StatusCoder
	if !errors.As(fmt.Errorf("wrap: %w", err), &coder) {
		t.Error("StatusError not unwrappable to StatusCoder")
	}
}

func TestNetOpErrorTimeout(t *testing.T) {
	opErr := &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: &timeoutError{},
	}
	if !IsBreakerFailure(opErr) {
		t.Error("net.OpError wrapping a timeout should be a breaker failure")
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
