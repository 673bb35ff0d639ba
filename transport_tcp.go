package uhppote

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/uhppoted/uhppoted-go/internal/debug"
)

// tcpSend opens a fresh TCP connection to addr, writes req, and accumulates bytes until either a
// full 64 byte frame has been read or the deadline expires (spec.md §4.2 "TCP addressed send",
// §9 "partial reads"). A connection closed or reset before a full frame arrives is a Transport
// error; a deadline expiring first is a Timeout error - the two are never conflated.
func tcpSend(ctx context.Context, addr string, req frame, timeout time.Duration, dbg bool) (frame, error) {
	var zero frame

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return zero, newTransportError("failed to connect", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return zero, newTransportError("failed to set deadline", err)
	}

	debug.Dump(dbg, "sent", req[:])
	if _, err := conn.Write(req[:]); err != nil {
		return zero, newTransportError("failed to send request", err)
	}

	var reply frame
	n, err := io.ReadFull(conn, reply[:])
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return zero, newTimeoutError("no reply within timeout")
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return zero, newTransportError("connection closed before a full reply was received", err)
		}
		return zero, newTransportError("read failed", err)
	}

	debug.Dump(dbg, "received", reply[:n])
	return reply, nil
}

// tcpSendNoReply opens a fresh TCP connection to addr, writes req, and closes without reading a
// reply - used by SetIP over TCP, mirroring tcpSend's connection setup minus the read half
// (spec.md §4.5, uhppote_async.py's set_ip routing every protocol through the same _send path).
func tcpSendNoReply(ctx context.Context, addr string, req frame, timeout time.Duration, dbg bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return newTransportError("failed to connect", err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return newTransportError("failed to set deadline", err)
	}

	debug.Dump(dbg, "sent", req[:])
	if _, err := conn.Write(req[:]); err != nil {
		return newTransportError("failed to send request", err)
	}
	return nil
}
