package pipeline

// InboundHandler receives events flowing from the transport towards the
// application: received messages, out-of-band notifications and channel
// lifecycle transitions.
type InboundHandler interface {
	MessageReceived(ctx *HandlerContext, msg any)
	UserEventTriggered(ctx *HandlerContext, event any)
	ChannelActive(ctx *HandlerContext)
	ChannelInactive(ctx *HandlerContext)
}

// OutboundHandler receives operations flowing from the application towards
// the transport. Every method either performs the operation and completes
// promise, or forwards both unchanged to the next handler in the pipeline.
type OutboundHandler interface {
	Bind(ctx *HandlerContext, localAddr any, promise *Promise[any])
	Connect(ctx *HandlerContext, remoteAddr, localAddr any, promise *Promise[any])
	Disconnect(ctx *HandlerContext, promise *Promise[any])
	Close(ctx *HandlerContext, promise *Promise[any])
	Deregister(ctx *HandlerContext, promise *Promise[any])
	Flush(ctx *HandlerContext, promise *Promise[any])
	SendFile(ctx *HandlerContext, region any, promise *Promise[any])
}

// Handler is implemented by anything attachable to a Pipeline. Most handlers
// implement only InboundHandler or OutboundHandler; HandlerAdapter (see
// adapter.go) supplies default OutboundHandler behavior so subclasses need
// only override what they care about.
type Handler interface {
	Name() string
}

// node is one link in the pipeline's doubly-linked handler chain.
type node struct {
	handler  Handler
	prev, next *node
}

// HandlerContext is passed to every handler callback; it identifies the
// node's position in the pipeline so a handler can forward to its neighbor
// without holding a direct reference to it.
type HandlerContext struct {
	pipeline *Pipeline
	n        *node
}

// Pipeline forwards the pipeline this context belongs to.
func (c *HandlerContext) Pipeline() *Pipeline { return c.pipeline }

// FireMessageReceived invokes MessageReceived on the next inbound handler.
func (c *HandlerContext) FireMessageReceived(msg any) {
	if n := c.nextInbound(); n != nil {
		n.handler.(InboundHandler).MessageReceived(&HandlerContext{c.pipeline, n}, msg)
	}
}

// FireUserEventTriggered invokes UserEventTriggered on the next inbound handler.
func (c *HandlerContext) FireUserEventTriggered(event any) {
	if n := c.nextInbound(); n != nil {
		n.handler.(InboundHandler).UserEventTriggered(&HandlerContext{c.pipeline, n}, event)
	}
}

// FireChannelActive invokes ChannelActive on the next inbound handler.
func (c *HandlerContext) FireChannelActive() {
	if n := c.nextInbound(); n != nil {
		n.handler.(InboundHandler).ChannelActive(&HandlerContext{c.pipeline, n})
	}
}

// FireChannelInactive invokes ChannelInactive on the next inbound handler.
func (c *HandlerContext) FireChannelInactive() {
	if n := c.nextInbound(); n != nil {
		n.handler.(InboundHandler).ChannelInactive(&HandlerContext{c.pipeline, n})
	}
}

func (c *HandlerContext) nextInbound() *node {
	for n := c.n.next; n != nil; n = n.next {
		if _, ok := n.handler.(InboundHandler); ok {
			return n
		}
	}
	return nil
}

// nextOutbound returns the previous node (outbound operations travel tail to
// head) implementing OutboundHandler.
func (c *HandlerContext) nextOutbound() *node {
	for n := c.n.prev; n != nil; n = n.prev {
		if _, ok := n.handler.(OutboundHandler); ok {
			return n
		}
	}
	return nil
}
