package channel

// SctpMessage is an immutable record of one SCTP datagram: its payload plus
// the per-message metadata (stream id, payload protocol id, unordered flag)
// that SCTP carries alongside the data itself and that a plain byte stream
// would lose.
//
// Payload may alias a pooled buffer handed in by the caller; ownership
// transfers into the channel on Write and back out of it on Read, so
// callers must not reuse a buffer passed to DoWriteMessages until the
// associated future completes.
type SctpMessage struct {
	payload   []byte
	streamID  uint16
	protoID   uint32
	unordered bool
}

// NewSctpMessage constructs a message for transmission. streamID must be
// less than the number of negotiated outbound streams; protoID is an
// application-defined payload protocol identifier carried verbatim to the
// peer.
func NewSctpMessage(payload []byte, streamID uint16, protoID uint32, unordered bool) SctpMessage {
	return SctpMessage{payload: payload, streamID: streamID, protoID: protoID, unordered: unordered}
}

func (m SctpMessage) Payload() []byte    { return m.payload }
func (m SctpMessage) StreamID() uint16   { return m.streamID }
func (m SctpMessage) ProtocolID() uint32 { return m.protoID }
func (m SctpMessage) Unordered() bool    { return m.unordered }

// MessageInfo is the outbound counterpart of SctpMessage: the message plus
// the association it travels on and, optionally, a specific destination
// path (nil means "use the primary path", i.e. ordinary multi-homed
// failover applies).
type MessageInfo struct {
	Message     SctpMessage
	Association Association
	Destination *string // nil => primary path
}
