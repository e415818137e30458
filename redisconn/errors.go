package redisconn

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// Error types
var (
	// ErrNotNew is returned by Open when the handle has already been opened or closed.
	ErrNotNew = errors.New("redisconn: connection is not new")
	// ErrSyncTimeout is returned by Wait when the sync timeout elapses first.
	ErrSyncTimeout = errors.New("redisconn: sync timeout waiting for operation")
	// ErrAdminDisabled is returned for administrative commands when AllowAdmin is false.
	ErrAdminDisabled = errors.New("redisconn: admin commands are not allowed on this connection")
)

// IsTransport reports whether err is a network fault: a net.Error (dial,
// read and write failures, timeouts), a reset or refused connection, or the
// peer hanging up mid-reply. Server error replies are not transport faults.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
