package channel

import (
	"github.com/sirupsen/logrus"
)

// pkgLog is the base entry every channel-level trace derives from.
var pkgLog = logrus.WithField("pkg", "channel")

// log returns a structured entry pre-populated with this channel's local
// address, remote address and current lifecycle state, so a single
// association's lifecycle can be grepped out of interleaved multi-channel
// logs.
func (ch *SctpChannel) log() *logrus.Entry {
	entry := pkgLog.WithField("state", ch.status.String())
	if ch.socket != nil {
		entry = entry.WithField("local", ch.socket.LocalAddr()).WithField("remote", ch.socket.RemoteAddr())
	} else if ch.local != nil {
		entry = entry.WithField("local", ch.local.String())
	}
	return entry
}
