// Command sctp-echo-server accepts SCTP associations and echoes every
// message it receives back to the sender on the same stream with the same
// payload protocol id.
package main

import (
	"os"
	"os/signal"

	sctp "github.com/georgeyanev/sctp-channel"
	"github.com/georgeyanev/sctp-channel/channel"
	"github.com/georgeyanev/sctp-channel/config"
	"github.com/georgeyanev/sctp-channel/pipeline"
	log "github.com/sirupsen/logrus"
)

func waitSigint() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	laddr, err := sctp.ResolveSCTPAddr("sctp", cfg.Listen.Address)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve listen address")
	}

	ln, err := sctp.ListenSCTP("sctp", laddr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	defer ln.Close()

	log.WithField("address", ln.Addr()).Info("listening")

	go acceptLoop(ln, cfg)

	waitSigint()
	log.Info("shutting down")
}

func acceptLoop(ln *sctp.SCTPListener, cfg *config.BootstrapConfig) {
	for {
		conn, err := ln.AcceptSCTP()
		if err != nil {
			log.WithError(err).Error("accept failed")
			return
		}
		go serveConnection(conn, cfg)
	}
}

func serveConnection(conn *sctp.SCTPConn, cfg *config.BootstrapConfig) {
	el := pipeline.NewEventLoop(64)
	defer el.Shutdown()

	p := pipeline.NewPipeline()

	scc := channel.NewServerChannelConfig()
	if err := config.ApplyServer(cfg, scc); err != nil {
		log.WithError(err).Error("apply server config")
		_ = conn.Close()
		return
	}

	ch, err := channel.NewSctpChannelFromAccepted(el, p, "sctp", conn, scc.ChannelConfig)
	if err != nil {
		log.WithError(err).Error("wrap accepted association")
		return
	}

	p.AddLast(&notificationLogger{ch: ch})
	p.AddLast(channel.NewChannelHandler(ch))

	for ch.IsActive() {
		_, err := ch.DoReadMessages(func(msg channel.SctpMessage) {
			echoBack(ch, msg)
		}).Await()
		if err != nil {
			log.WithError(err).Debug("read loop ended")
			return
		}
	}
}

func echoBack(ch *channel.SctpChannel, msg channel.SctpMessage) {
	reply := channel.NewSctpMessage(msg.Payload(), msg.StreamID(), msg.ProtocolID(), msg.Unordered())
	sent := false
	source := func() (channel.SctpMessage, bool) {
		if sent {
			return channel.SctpMessage{}, false
		}
		sent = true
		return reply, true
	}
	if _, err := ch.DoWriteMessages(source).Await(); err != nil {
		log.WithError(err).Warn("echo write failed")
	}
}
