package uhppote

import (
	"context"
	"net"
	"sync"

	"github.com/GoAethereal/cancel"
	"github.com/sirupsen/logrus"
	"github.com/uhppoted/uhppoted-go/internal/debug"
	"github.com/uhppoted/uhppoted-go/internal/metrics"
)

// listenerState tracks the lifecycle a Listener moves through: Unbound -> Bound -> Running,
// toggling to Handling while a handler call is in flight, then Closing -> Closed on shutdown
// (spec.md §5 "Listener state machine").
type listenerState int

const (
	stateUnbound listenerState = iota
	stateBound
	stateRunning
	stateHandling
	stateClosing
	stateClosed
)

// EventHandler receives a single decoded event. It must not block for long - the listener serves
// one UDP socket and delivers events synchronously, the same single-threaded delivery model as
// uhppote_async.py's listen() callback.
type EventHandler func(event *Event)

// Listen binds addr and delivers every well-formed 64 byte event frame received on it to handler,
// until ctx is canceled (spec.md §5). It never retries a bind failure and never re-binds after a
// read error - a failed listener must be reconstructed by the caller.
//
// Shutdown uses a one-shot cancellable signal propagated from ctx, the same primitive the teacher
// uses to tear down an in-flight Client.Request race (GoAethereal/modbus client.go).
func Listen(ctx context.Context, addr string, handler EventHandler, dbg bool) error {
	var mu sync.Mutex
	state := stateUnbound
	transition := func(s listenerState) {
		mu.Lock()
		state = s
		mu.Unlock()
		logrus.WithField("addr", addr).WithField("state", state).Debug("listener: state transition")
	}

	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return newConfigurationError("invalid listen address: " + err.Error())
	}

	if isInaddrAny(laddr.IP.String(), laddr.Port) {
		logrus.WithField("addr", addr).Warn("listener: binding to all interfaces")
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		metrics.IncBindErrors()
		return newTransportError("failed to bind listener", err)
	}
	defer conn.Close()
	transition(stateBound)

	sig := cancel.New().Propagate(ctx)
	defer sig.Cancel()

	go func() {
		<-sig.Done()
		conn.Close()
	}()

	transition(stateRunning)
	logrus.WithField("addr", addr).Info("listener: running")

	buf := make([]byte, 2*FrameSize)
	for {
		select {
		case <-sig.Done():
			transition(stateClosing)
			transition(stateClosed)
			return ctx.Err()
		default:
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-sig.Done():
				transition(stateClosing)
				transition(stateClosed)
				return ctx.Err()
			default:
			}
			return newTransportError("listener read failed", err)
		}

		if n != FrameSize {
			metrics.IncFramesDropped()
			logrus.WithField("bytes", n).Warn("listener: dropping malformed datagram")
			continue
		}

		debug.Dump(dbg, "received", buf[:n])

		var f frame
		copy(f[:], buf[:n])
		event, err := decodeEventFrame(&f)
		if err != nil {
			metrics.IncDecodeErrors()
			logrus.WithError(err).Warn("listener: failed to decode event frame")
			continue
		}

		metrics.IncEventsReceived()
		transition(stateHandling)
		handler(event)
		transition(stateRunning)
	}
}

func (s listenerState) String() string {
	switch s {
	case stateUnbound:
		return "unbound"
	case stateBound:
		return "bound"
	case stateRunning:
		return "running"
	case stateHandling:
		return "handling"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
