// Command uhppote-listen is a reference event consumer: it configures a controller's event
// destination, enables special events, and processes incoming events off a bounded queue on a
// separate goroutine, the same shape as original_source/examples/event-listener/main.py's
// queue.Queue + worker thread. It is not part of the core driver - a worked example of wiring
// Client.Listen into an application.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uhppoted/uhppoted-go"
	"github.com/uhppoted/uhppoted-go/internal/metrics"
)

// queueSize bounds the number of events buffered between the listener goroutine and the
// processing goroutine; a full queue discards the incoming event rather than blocking the
// listener (original_source/examples/event-listener/main.py: "event queue full - discarding").
const queueSize = 8

func main() {
	var (
		controllerID = flag.Uint("controller", 405419896, "controller serial number")
		bindAddr     = flag.String("bind", "0.0.0.0:0", "local address for outgoing requests")
		broadcast    = flag.String("broadcast", "255.255.255.255:60000", "controller broadcast address")
		listenAddr   = flag.String("listen", "0.0.0.0:60001", "address to listen for events on")
		hostAddr     = flag.String("host", "192.168.1.100", "IPv4 address the controller should push events to")
		hostPort     = flag.Uint("host-port", 60001, "UDP port the controller should push events to")
		metricsAddr  = flag.String("metrics", "", "if set, serve Prometheus metrics on this address")
		debug        = flag.Bool("debug", false, "dump sent/received frames to stderr")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *metricsAddr != "" {
		metrics.StartHTTP(*metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &uhppote.Client{
		BindAddr:      *bindAddr,
		BroadcastAddr: *broadcast,
		ListenAddr:    *listenAddr,
		Timeout:       5 * time.Second,
		Debug:         *debug,
	}

	controller := uhppote.ID(*controllerID)

	if _, err := client.SetListener(ctx, controller, net.ParseIP(*hostAddr), uint16(*hostPort), 0); err != nil {
		logrus.WithError(err).Fatal("failed to set event listener address")
	}
	if _, err := client.RecordSpecialEvents(ctx, controller, true); err != nil {
		logrus.WithError(err).Fatal("failed to enable special events")
	}

	queue := make(chan *uhppote.Event, queueSize)
	go processEvents(queue)

	logrus.WithField("addr", *listenAddr).Info("listening for events")
	if err := client.Listen(ctx, func(event *uhppote.Event) {
		onEvent(event, queue)
	}); err != nil && ctx.Err() == nil {
		logrus.WithError(err).Fatal("listener stopped")
	}
}

func onEvent(event *uhppote.Event, queue chan *uhppote.Event) {
	if event == nil {
		return
	}
	select {
	case queue <- event:
	default:
		logrus.WithField("index", event.Index).Warn("event queue full - discarding event")
	}
}

func processEvents(queue chan *uhppote.Event) {
	for event := range queue {
		logrus.WithFields(logrus.Fields{
			"index":     event.Index,
			"door":      event.Door,
			"card":      event.Card,
			"direction": event.Direction,
			"granted":   event.AccessGranted,
		}).Info("processing event")
	}
}
