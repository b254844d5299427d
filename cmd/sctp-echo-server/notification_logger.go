package main

import (
	"github.com/georgeyanev/sctp-channel/channel"
	"github.com/georgeyanev/sctp-channel/pipeline"
	log "github.com/sirupsen/logrus"
)

// notificationLogger sits ahead of the terminal channel.ChannelHandler and
// logs every lifecycle event and notification it observes, then forwards
// unchanged so MessageReceived still reaches whatever the pipeline decides
// is next (here, nothing — the echo itself happens from the accept loop's
// sink callback, not from this handler).
type notificationLogger struct {
	ch *channel.SctpChannel
}

func (h *notificationLogger) Name() string { return "notification-logger" }

func (h *notificationLogger) MessageReceived(ctx *pipeline.HandlerContext, msg any) {
	ctx.FireMessageReceived(msg)
}

func (h *notificationLogger) UserEventTriggered(ctx *pipeline.HandlerContext, event any) {
	if n, ok := event.(channel.Notification); ok {
		log.WithField("kind", n.Kind).WithField("assoc", h.ch.Association()).Info("notification")
	}
	ctx.FireUserEventTriggered(event)
}

func (h *notificationLogger) ChannelActive(ctx *pipeline.HandlerContext) {
	log.WithField("assoc", h.ch.Association()).Info("association up")
	ctx.FireChannelActive()
}

func (h *notificationLogger) ChannelInactive(ctx *pipeline.HandlerContext) {
	log.Info("association down")
	ctx.FireChannelInactive()
}
