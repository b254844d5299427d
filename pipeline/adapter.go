package pipeline

import "errors"

// ErrMissingFlushOverride is returned when a handler advertises the
// OutboundHandler capability but relies on HandlerAdapter's default Flush,
// which would silently drop writes that the pipeline's tail expects to be
// flushed explicitly.
var ErrMissingFlushOverride = errors.New("pipeline: handler implements OutboundHandler but does not override Flush")

// HandlerAdapter is embedded by concrete handlers that only care about a
// subset of outbound operations. Every operation not overridden forwards
// unchanged to the next handler in the pipeline.
type HandlerAdapter struct {
	HandlerName string

	// flushOverridden must be set by a capability check performed once at
	// pipeline-attach time (see CheckFlushOverride); it exists so Flush can
	// fail fast instead of silently forwarding when the embedder intended to
	// override it and simply forgot.
	flushOverridden bool
	self            any
}

// Name implements Handler.
func (a *HandlerAdapter) Name() string {
	if a.HandlerName != "" {
		return a.HandlerName
	}
	return "HandlerAdapter"
}

// Bind forwards to the next outbound handler.
func (a *HandlerAdapter) Bind(ctx *HandlerContext, localAddr any, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Bind(&HandlerContext{ctx.pipeline, n}, localAddr, promise)
	}
}

// Connect forwards to the next outbound handler.
func (a *HandlerAdapter) Connect(ctx *HandlerContext, remoteAddr, localAddr any, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Connect(&HandlerContext{ctx.pipeline, n}, remoteAddr, localAddr, promise)
	}
}

// Disconnect forwards to the next outbound handler.
func (a *HandlerAdapter) Disconnect(ctx *HandlerContext, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Disconnect(&HandlerContext{ctx.pipeline, n}, promise)
	}
}

// Close forwards to the next outbound handler.
func (a *HandlerAdapter) Close(ctx *HandlerContext, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Close(&HandlerContext{ctx.pipeline, n}, promise)
	}
}

// Deregister forwards to the next outbound handler.
func (a *HandlerAdapter) Deregister(ctx *HandlerContext, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Deregister(&HandlerContext{ctx.pipeline, n}, promise)
	}
}

// Flush forwards to the next outbound handler, unless this handler (or an
// embedder of it) advertises the OutboundHandler capability without having
// overridden Flush itself, in which case it fails the promise with
// ErrMissingFlushOverride instead of silently losing the flush.
func (a *HandlerAdapter) Flush(ctx *HandlerContext, promise *Promise[any]) {
	if a.self != nil {
		if _, isOutbound := a.self.(OutboundHandler); isOutbound && !a.flushOverridden {
			promise.Fail(ErrMissingFlushOverride)
			return
		}
	}
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).Flush(&HandlerContext{ctx.pipeline, n}, promise)
	}
}

// SendFile forwards to the next outbound handler.
func (a *HandlerAdapter) SendFile(ctx *HandlerContext, region any, promise *Promise[any]) {
	if n := ctx.nextOutbound(); n != nil {
		n.handler.(OutboundHandler).SendFile(&HandlerContext{ctx.pipeline, n}, region, promise)
	}
}

// CheckFlushOverride records whether self's concrete Flush method differs
// from HandlerAdapter.Flush. Concrete handlers call this once, from their
// constructor, passing themselves; it is the runtime encoding of the
// "capability-intersection check" the default-forwarding design calls for.
func (a *HandlerAdapter) CheckFlushOverride(self any, overridden bool) {
	a.self = self
	a.flushOverridden = overridden
}
