package sctp

// SndInfo mirrors struct sctp_sndinfo from RFC 6458 §5.3.4. It carries
// per-message send parameters as ancillary data on WriteMsgExt, and is also
// embedded verbatim inside the kernel's send-failed notification.
type SndInfo struct {
	Sid     uint16
	Flags   uint16
	Ppid    uint32
	Context uint32
	AssocId int32
}

// RcvInfo mirrors struct sctp_rcvinfo from RFC 6458 §5.3.5, delivered as
// ancillary data alongside a received message.
type RcvInfo struct {
	Sid      uint16
	Ssn      uint16
	Flags    uint16
	_        uint16 // alignment padding to match the kernel's struct layout
	Ppid     uint32
	Tsn      uint32
	CumTsn   uint32
	Context  uint32
	AssocId  int32
}

// SndInfo.Flags / RcvInfo.Flags bits, from include/uapi/linux/sctp.h's
// sctp_sinfo_flags enum.
const (
	SCTP_UNORDERED        = 1 << 0
	SCTP_ADDR_OVER        = 1 << 1
	SCTP_ABORT            = 1 << 2
	SCTP_SACK_IMMEDIATELY = 1 << 3

	// SCTP_EOF and SCTP_NOTIFICATION reuse the historical MSG_FIN and
	// MSG_NOTIFICATION bit values; the kernel does the same.
	SCTP_EOF          = 0x200
	SCTP_NOTIFICATION = 0x8000
)

// SCTP_EOR is the recvmsg/sendmsg flag (equal to MSG_EOR) marking a message
// boundary; the kernel sets it in recvFlags and expects it back on send.
const SCTP_EOR = 0x80
