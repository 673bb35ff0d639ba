package uhppote

import (
	"context"
	"net"
	"time"

	"github.com/GoAethereal/cancel"
	"github.com/uhppoted/uhppoted-go/internal/debug"
)

// udpBroadcast sends req from bindAddr to broadcastAddr and collects every 64 byte reply
// received before timeout expires (spec.md §4.2 "UDP broadcast").
// Discovery-style operations use this: several controllers may answer the same datagram.
func udpBroadcast(ctx context.Context, bindAddr string, broadcastAddr string, req frame, timeout time.Duration, dbg bool) ([]frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	laddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, newConfigurationError("invalid bind address: " + err.Error())
	}

	raddr, err := net.ResolveUDPAddr("udp", broadcastAddr)
	if err != nil {
		return nil, newConfigurationError("invalid broadcast address: " + err.Error())
	}

	// spec.md §4.3/§9: a bound source port equal to the broadcast destination port would have
	// the reply read-loop immediately see our own outgoing datagram looped back - fail before
	// ever touching the network instead of returning a confusing malformed-reply error later.
	if laddr.Port != 0 && laddr.Port == raddr.Port {
		return nil, newConfigurationError("bind port collides with broadcast port")
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, newTransportError("failed to bind broadcast socket", err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return nil, newTransportError("failed to set write deadline", err)
	}

	debug.Dump(dbg, "sent", req[:])
	if _, err := conn.WriteToUDP(req[:], raddr); err != nil {
		return nil, newTransportError("failed to send broadcast request", err)
	}

	deadline := time.Now().Add(timeout)
	var replies []frame
	buf := make([]byte, 2*FrameSize)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, newTransportError("failed to set read deadline", err)
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				break
			}
			return nil, newTransportError("broadcast read failed", err)
		}
		if n != FrameSize {
			continue
		}
		debug.Dump(dbg, "received", buf[:n])
		var f frame
		copy(f[:], buf[:n])
		replies = append(replies, f)
	}
	return replies, nil
}

// udpSend sends req to addr over UDP and waits for the first 64 byte reply, using a one-shot
// cancellable context for the send/receive race the way the teacher's Client.Request does
// (GoAethereal/modbus client.go): the read goroutine is canceled as soon as either a reply
// arrives or the send itself fails (spec.md §4.2 "UDP addressed send").
func udpSend(ctx context.Context, bindAddr string, addr string, req frame, timeout time.Duration, connect bool, dbg bool) (frame, error) {
	var zero frame

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	laddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return zero, newConfigurationError("invalid bind address: " + err.Error())
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return zero, newConfigurationError("invalid controller address: " + err.Error())
	}

	var conn *net.UDPConn
	if connect {
		conn, err = net.DialUDP("udp", laddr, raddr)
	} else {
		conn, err = net.ListenUDP("udp", laddr)
	}
	if err != nil {
		return zero, newTransportError("failed to open UDP socket", err)
	}
	defer conn.Close()

	sig := cancel.New().Propagate(ctx)
	defer sig.Cancel()

	type result struct {
		f   frame
		err error
	}
	rx := make(chan result, 1)

	go func() {
		buf := make([]byte, 2*FrameSize)
		for {
			select {
			case <-sig.Done():
				return
			default:
			}
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				rx <- result{err: newTransportError("failed to set read deadline", err)}
				return
			}

			var n int
			var from *net.UDPAddr
			var rerr error
			if connect {
				n, rerr = conn.Read(buf)
			} else {
				n, from, rerr = conn.ReadFromUDP(buf)
			}
			if rerr != nil {
				if nerr, ok := rerr.(net.Error); ok && nerr.Timeout() {
					rx <- result{err: newTimeoutError("no reply within timeout")}
					return
				}
				rx <- result{err: newTransportError("read failed", rerr)}
				return
			}
			if !connect && from != nil && from.String() != raddr.String() {
				continue
			}
			if n != FrameSize {
				continue
			}
			debug.Dump(dbg, "received", buf[:n])
			var f frame
			copy(f[:], buf[:n])
			rx <- result{f: f}
			return
		}
	}()

	debug.Dump(dbg, "sent", req[:])
	if connect {
		_, err = conn.Write(req[:])
	} else {
		_, err = conn.WriteToUDP(req[:], raddr)
	}
	if err != nil {
		return zero, newTransportError("failed to send request", err)
	}

	select {
	case r := <-rx:
		if r.err != nil {
			return zero, r.err
		}
		return r.f, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// udpSendNoReply sends req to addr over UDP without waiting for a reply, used by SetIP: the
// controller applies the new address and never responds on the old one (spec.md §4.7 point 2).
func udpSendNoReply(ctx context.Context, bindAddr string, addr string, req frame, dbg bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	laddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return newConfigurationError("invalid bind address: " + err.Error())
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return newConfigurationError("invalid controller address: " + err.Error())
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return newTransportError("failed to open UDP socket", err)
	}
	defer conn.Close()

	debug.Dump(dbg, "sent", req[:])
	if _, err := conn.WriteToUDP(req[:], raddr); err != nil {
		return newTransportError("failed to send request", err)
	}
	return nil
}
