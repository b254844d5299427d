// Command sctp-echo-client connects to an SCTP echo server, adds a
// secondary loopback address to exercise multi-homing, sends a handful of
// messages and logs whatever comes back plus any notifications.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/georgeyanev/sctp-channel/channel"
	"github.com/georgeyanev/sctp-channel/pipeline"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s remote-address [secondary-local-address]", os.Args[0])
	}
	remote := os.Args[1]
	var secondary string
	if len(os.Args) >= 3 {
		secondary = os.Args[2]
	}

	el := pipeline.NewEventLoop(64)
	defer el.Shutdown()
	p := pipeline.NewPipeline()

	ch := channel.NewSctpChannel(el, p, "sctp")
	p.AddLast(&clientEventLogger{})
	p.AddLast(channel.NewChannelHandler(ch))

	if _, err := ch.Connect(remote).Await(); err != nil {
		log.WithError(err).Fatal("connect failed")
	}
	log.WithField("assoc", ch.Association()).Info("connected")

	if secondary != "" {
		if _, err := ch.BindAddress(secondary).Await(); err != nil {
			log.WithError(err).Warn("failed to add secondary address")
		} else {
			log.WithField("address", secondary).Info("added secondary address")
		}
	}

	go readLoop(ch)

	for i := 0; i < 5; i++ {
		payload := []byte(fmt.Sprintf("ping %d", i))
		msg := channel.NewSctpMessage(payload, 0, 0, false)
		sent := false
		source := func() (channel.SctpMessage, bool) {
			if sent {
				return channel.SctpMessage{}, false
			}
			sent = true
			return msg, true
		}
		if _, err := ch.DoWriteMessages(source).Await(); err != nil {
			log.WithError(err).Warn("send failed")
		}
		time.Sleep(200 * time.Millisecond)
	}

	time.Sleep(time.Second)
	if _, err := ch.Close().Await(); err != nil {
		log.WithError(err).Warn("close failed")
	}
}

func readLoop(ch *channel.SctpChannel) {
	for ch.IsActive() {
		_, err := ch.DoReadMessages(func(msg channel.SctpMessage) {
			log.WithField("payload", string(msg.Payload())).Info("received echo")
		}).Await()
		if err != nil {
			return
		}
	}
}

type clientEventLogger struct{}

func (h *clientEventLogger) Name() string { return "client-event-logger" }

func (h *clientEventLogger) MessageReceived(ctx *pipeline.HandlerContext, msg any) {
	ctx.FireMessageReceived(msg)
}

func (h *clientEventLogger) UserEventTriggered(ctx *pipeline.HandlerContext, event any) {
	if n, ok := event.(channel.Notification); ok {
		log.WithField("kind", n.Kind).Info("notification")
	}
	ctx.FireUserEventTriggered(event)
}

func (h *clientEventLogger) ChannelActive(ctx *pipeline.HandlerContext) {
	ctx.FireChannelActive()
}

func (h *clientEventLogger) ChannelInactive(ctx *pipeline.HandlerContext) {
	log.Info("association closed")
	ctx.FireChannelInactive()
}
