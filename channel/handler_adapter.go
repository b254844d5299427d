package channel

import (
	"github.com/georgeyanev/sctp-channel/pipeline"
)

// ChannelHandler sits at the tail of the pipeline, the position closest to
// the transport. It embeds pipeline.HandlerAdapter for the outbound
// operations it does not need to specialize (Deregister, SendFile — SCTP
// has no file-region fast path) and overrides the rest to invoke the
// channel's doX methods directly instead of forwarding further.
type ChannelHandler struct {
	pipeline.HandlerAdapter
	channel *SctpChannel
}

// NewChannelHandler returns a handler bound to ch, ready to be the tail
// AddLast of a Pipeline.
func NewChannelHandler(ch *SctpChannel) *ChannelHandler {
	h := &ChannelHandler{HandlerAdapter: pipeline.HandlerAdapter{HandlerName: "sctp-channel"}, channel: ch}
	h.CheckFlushOverride(h, true)
	return h
}

func settle(f *pipeline.Future[any], promise *pipeline.Promise[any]) {
	v, err := f.Await()
	if err != nil {
		promise.Fail(err)
		return
	}
	promise.Complete(v)
}

// Bind is the tail: it performs the bind rather than forwarding.
func (h *ChannelHandler) Bind(_ *pipeline.HandlerContext, localAddr any, promise *pipeline.Promise[any]) {
	addr, _ := localAddr.(string)
	go settle(h.channel.Bind(addr), promise)
}

// Connect is the tail: localAddr is accepted for interface symmetry with
// the framework's Connect signature but SCTP's local address is supplied
// via a prior Bind, since the kernel binds and connects in one call.
func (h *ChannelHandler) Connect(_ *pipeline.HandlerContext, remoteAddr, _ any, promise *pipeline.Promise[any]) {
	addr, _ := remoteAddr.(string)
	go settle(h.channel.Connect(addr), promise)
}

func (h *ChannelHandler) Disconnect(_ *pipeline.HandlerContext, promise *pipeline.Promise[any]) {
	go settle(h.channel.Disconnect(), promise)
}

func (h *ChannelHandler) Close(_ *pipeline.HandlerContext, promise *pipeline.Promise[any]) {
	go settle(h.channel.Close(), promise)
}

// Flush overrides HandlerAdapter's default: this handler does implement
// OutboundHandler's remaining operations concretely, so the override-
// required contract (see pipeline.HandlerAdapter.Flush) demands a real
// implementation here rather than the default forward-to-next behavior,
// which would have nothing left to forward to. Draining is driven by
// DoWriteMessages directly; Flush is a synchronous no-op completion.
func (h *ChannelHandler) Flush(_ *pipeline.HandlerContext, promise *pipeline.Promise[any]) {
	promise.Complete(nil)
}
