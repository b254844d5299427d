package channel

import (
	"fmt"

	sctp "github.com/georgeyanev/sctp-channel"
)

// Notification is the sum type of out-of-band events the kernel delivers
// interleaved with ordinary messages on an SCTP socket. Each variant wraps
// the kernel-supplied event verbatim plus an Attachment slot the
// application may use to correlate notifications with higher-level state.
type Notification struct {
	Kind       NotificationKind
	Attachment any

	AssociationChange *sctp.AssocChangeEvent
	PeerAddressChange *sctp.PeerAddrChangeEvent
	SendFailed        *sctp.SendFailedEvent
	RemoteError       *sctp.RemoteErrorEvent
	Adaptation        *sctp.AdaptationEvent
	SenderDry         *sctp.SenderDryEvent
	Shutdown          *sctp.ShutdownEvent
}

type NotificationKind int

const (
	NotificationAssociationChange NotificationKind = iota
	NotificationPeerAddressChange
	NotificationSendFailed
	NotificationRemoteError
	NotificationAdaptation
	NotificationSenderDry
	NotificationShutdown
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationAssociationChange:
		return "AssociationChange"
	case NotificationPeerAddressChange:
		return "PeerAddressChange"
	case NotificationSendFailed:
		return "SendFailed"
	case NotificationRemoteError:
		return "RemoteError"
	case NotificationAdaptation:
		return "Adaptation"
	case NotificationSenderDry:
		return "SenderDry"
	case NotificationShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("NotificationKind(%d)", int(k))
	}
}

// notificationVerdict tells the read loop whether to keep draining the
// current receive batch after dispatching a notification.
type notificationVerdict int

const (
	verdictContinue notificationVerdict = iota
	verdictReturn
)

// dispatchNotification converts a raw kernel event into a Notification,
// fires it as a pipeline user event, and reports whether the channel
// should stop receiving (shutdown) or keep going.
func (ch *SctpChannel) dispatchNotification(ev sctp.Event) notificationVerdict {
	n := Notification{Attachment: ch.notificationAttachment}

	switch e := ev.(type) {
	case *sctp.AssocChangeEvent:
		n.Kind, n.AssociationChange = NotificationAssociationChange, e
	case *sctp.PeerAddrChangeEvent:
		n.Kind, n.PeerAddressChange = NotificationPeerAddressChange, e
	case *sctp.SendFailedEvent:
		n.Kind, n.SendFailed = NotificationSendFailed, e
	case *sctp.RemoteErrorEvent:
		n.Kind, n.RemoteError = NotificationRemoteError, e
	case *sctp.AdaptationEvent:
		n.Kind, n.Adaptation = NotificationAdaptation, e
	case *sctp.SenderDryEvent:
		n.Kind, n.SenderDry = NotificationSenderDry, e
	case *sctp.ShutdownEvent:
		n.Kind, n.Shutdown = NotificationShutdown, e
	default:
		ch.log().WithField("eventType", fmt.Sprintf("%T", ev)).Debug("ignoring unrecognized notification")
		return verdictContinue
	}

	ch.pipeline.FireUserEventTriggered(n)

	if n.Kind == NotificationShutdown {
		ch.log().Debug("shutdown notification received, closing channel")
		ch.doClose()
		return verdictReturn
	}
	return verdictContinue
}
