package pipeline

import "sync"

// Pipeline is an ordered chain of Handlers. Inbound events flow head-to-tail
// (transport towards application); outbound operations flow tail-to-head
// (application towards transport). The channel occupies the head position
// implicitly: it is the originator of inbound events and the final
// destination of outbound operations.
type Pipeline struct {
	mu         sync.RWMutex
	head, tail *node
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddLast appends handler at the tail of the pipeline, the position closest
// to the application.
func (p *Pipeline) AddLast(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := &node{handler: handler}
	if p.tail == nil {
		p.head, p.tail = n, n
		return
	}
	n.prev = p.tail
	p.tail.next = n
	p.tail = n
}

// FireMessageReceived starts an inbound MessageReceived traversal from the head.
func (p *Pipeline) FireMessageReceived(msg any) {
	p.mu.RLock()
	h := p.head
	p.mu.RUnlock()
	if h == nil {
		return
	}
	ctx := &HandlerContext{pipeline: p, n: &node{next: h}}
	ctx.FireMessageReceived(msg)
}

// FireUserEventTriggered starts an inbound UserEventTriggered traversal from the head.
func (p *Pipeline) FireUserEventTriggered(event any) {
	p.mu.RLock()
	h := p.head
	p.mu.RUnlock()
	if h == nil {
		return
	}
	ctx := &HandlerContext{pipeline: p, n: &node{next: h}}
	ctx.FireUserEventTriggered(event)
}

// FireChannelActive starts an inbound ChannelActive traversal from the head.
func (p *Pipeline) FireChannelActive() {
	p.mu.RLock()
	h := p.head
	p.mu.RUnlock()
	if h == nil {
		return
	}
	ctx := &HandlerContext{pipeline: p, n: &node{next: h}}
	ctx.FireChannelActive()
}

// FireChannelInactive starts an inbound ChannelInactive traversal from the head.
func (p *Pipeline) FireChannelInactive() {
	p.mu.RLock()
	h := p.head
	p.mu.RUnlock()
	if h == nil {
		return
	}
	ctx := &HandlerContext{pipeline: p, n: &node{next: h}}
	ctx.FireChannelInactive()
}

// Bind starts an outbound Bind traversal from the tail.
func (p *Pipeline) Bind(localAddr any, promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Bind(ctx, localAddr, promise)
	})
}

// Connect starts an outbound Connect traversal from the tail.
func (p *Pipeline) Connect(remoteAddr, localAddr any, promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Connect(ctx, remoteAddr, localAddr, promise)
	})
}

// Disconnect starts an outbound Disconnect traversal from the tail.
func (p *Pipeline) Disconnect(promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Disconnect(ctx, promise)
	})
}

// Close starts an outbound Close traversal from the tail.
func (p *Pipeline) Close(promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Close(ctx, promise)
	})
}

// Deregister starts an outbound Deregister traversal from the tail.
func (p *Pipeline) Deregister(promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Deregister(ctx, promise)
	})
}

// Flush starts an outbound Flush traversal from the tail.
func (p *Pipeline) Flush(promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).Flush(ctx, promise)
	})
}

// SendFile starts an outbound SendFile traversal from the tail.
func (p *Pipeline) SendFile(region any, promise *Promise[any]) {
	p.outboundHead(func(ctx *HandlerContext, n *node) {
		n.handler.(OutboundHandler).SendFile(ctx, region, promise)
	})
}

func (p *Pipeline) outboundHead(invoke func(ctx *HandlerContext, n *node)) {
	p.mu.RLock()
	t := p.tail
	p.mu.RUnlock()
	sentinel := &node{prev: t}
	ctx := &HandlerContext{pipeline: p, n: sentinel}
	n := ctx.nextOutbound()
	if n == nil {
		return
	}
	invoke(&HandlerContext{pipeline: p, n: n}, n)
}
