package sim

import (
	"fmt"
	"sync"
)

// HookPosPortMsgSend marks when a message is sent out from a port.
var HookPosPortMsgSend = &HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRecvd marks when an inbound message arrives at a port.
var HookPosPortMsgRecvd = &HookPos{Name: "Port Msg Recv"}

// HookPosPortMsgRetrieveIncoming marks when an inbound message is retrieved
// from the incoming buffer.
var HookPosPortMsgRetrieveIncoming = &HookPos{
	Name: "Port Msg Retrieve Incoming",
}

// HookPosPortMsgRetrieveOutgoing marks when an outbound message is retrieved
// from the outgoing buffer.
var HookPosPortMsgRetrieveOutgoing = &HookPos{
	Name: "Port Msg Retrieve Outgoing",
}

// A RemotePort is the name of a port on another component.
type RemotePort string

// A Port is the valid/ready handshake endpoint of a component. A transfer
// commits only when the sender has a message queued and the receiving buffer
// has room; a queued message is never retracted.
type Port interface {
	Named
	Hookable

	AsRemote() RemotePort

	SetConnection(conn Connection)
	Component() Component

	// For the connection.
	Deliver(msg Msg) *SendError
	NotifyAvailable()
	RetrieveOutgoing() Msg
	PeekOutgoing() Msg

	// For the component.
	CanSend() bool
	Send(msg Msg) *SendError
	RetrieveIncoming() Msg
	PeekIncoming() Msg
}

// NewPort creates a port with buffered incoming and outgoing sides.
func NewPort(
	comp Component,
	incomingBufCap, outgoingBufCap int,
	name string,
) Port {
	return &portImpl{
		comp:   comp,
		name:   name,
		inBuf:  NewBuffer(name+".IncomingBuf", incomingBufCap),
		outBuf: NewBuffer(name+".OutgoingBuf", outgoingBufCap),
	}
}

type portImpl struct {
	HookableBase

	lock sync.Mutex
	name string
	comp Component
	conn Connection

	inBuf  Buffer
	outBuf Buffer
}

func (p *portImpl) Name() string {
	return p.name
}

func (p *portImpl) AsRemote() RemotePort {
	return RemotePort(p.name)
}

func (p *portImpl) SetConnection(conn Connection) {
	if p.conn != nil {
		panic(fmt.Sprintf("connection already set to %s, now connecting to %s",
			p.conn.Name(), conn.Name()))
	}

	p.conn = conn
}

func (p *portImpl) Component() Component {
	return p.comp
}

// CanSend checks if the port can accept one more outgoing message.
func (p *portImpl) CanSend() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.outBuf.CanPush()
}

// Send queues a message to be sent out from the component. The connection is
// only notified on an empty-to-nonempty transition.
func (p *portImpl) Send(msg Msg) *SendError {
	p.lock.Lock()

	p.msgMustBeValid(msg)

	wasEmpty, err := p.enqueue(p.outBuf, msg, HookPosPortMsgSend)
	p.lock.Unlock()

	if err != nil {
		return err
	}

	if wasEmpty {
		p.conn.NotifySend()
	}

	return nil
}

// Deliver is used by the connection to hand a message to the component.
func (p *portImpl) Deliver(msg Msg) *SendError {
	p.lock.Lock()
	wasEmpty, err := p.enqueue(p.inBuf, msg, HookPosPortMsgRecvd)
	p.lock.Unlock()

	if err != nil {
		return err
	}

	if p.comp != nil && wasEmpty {
		p.comp.NotifyRecv(p)
	}

	return nil
}

// enqueue pushes into one side of the port. Callers hold the lock.
func (p *portImpl) enqueue(
	buf Buffer,
	msg Msg,
	pos *HookPos,
) (wasEmpty bool, err *SendError) {
	if !buf.CanPush() {
		return false, NewSendError()
	}

	wasEmpty = buf.Size() == 0
	buf.Push(msg)

	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   msg,
	})

	return wasEmpty, nil
}

// RetrieveIncoming takes one message from the incoming buffer, waking the
// connection if the buffer was full.
func (p *portImpl) RetrieveIncoming() Msg {
	return p.dequeue(p.inBuf, HookPosPortMsgRetrieveIncoming, func() {
		p.conn.NotifyAvailable(p)
	})
}

// RetrieveOutgoing takes one message from the outgoing buffer, waking the
// component if the buffer was full.
func (p *portImpl) RetrieveOutgoing() Msg {
	return p.dequeue(p.outBuf, HookPosPortMsgRetrieveOutgoing, func() {
		p.comp.NotifyPortFree(p)
	})
}

// dequeue pops from one side of the port, running onFreed on a
// full-to-not-full transition. The hook fires outside the lock.
func (p *portImpl) dequeue(buf Buffer, pos *HookPos, onFreed func()) Msg {
	p.lock.Lock()

	item := buf.Pop()
	if item == nil {
		p.lock.Unlock()
		return nil
	}

	if buf.Size() == buf.Capacity()-1 {
		onFreed()
	}

	p.lock.Unlock()

	msg := item.(Msg)
	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   msg,
	})

	return msg
}

// PeekIncoming returns the head of the incoming buffer without removing it.
func (p *portImpl) PeekIncoming() Msg {
	return p.peek(p.inBuf)
}

// PeekOutgoing returns the head of the outgoing buffer without removing it.
func (p *portImpl) PeekOutgoing() Msg {
	return p.peek(p.outBuf)
}

func (p *portImpl) peek(buf Buffer) Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := buf.Peek()
	if item == nil {
		return nil
	}

	return item.(Msg)
}

// NotifyAvailable is called by the connection when it can deliver to this
// port again.
func (p *portImpl) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}

func (p *portImpl) msgMustBeValid(msg Msg) {
	meta := msg.Meta()

	if p.name != string(meta.Src) {
		panic("sending port is not msg src")
	}

	if meta.Dst == "" {
		panic("msg dst is not given")
	}

	if meta.Src == meta.Dst {
		panic("sending back to src")
	}
}
