package spi

import "github.com/sockitsim/spisim/sim"

// A CommandMsg carries one command packet over the command channel.
type CommandMsg struct {
	sim.MsgMeta

	Cmd Command
}

// Meta returns the meta data of the message.
func (m *CommandMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a cloned CommandMsg with a different ID.
func (m *CommandMsg) Clone() sim.Msg {
	c := *m
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// CommandMsgBuilder builds command messages.
type CommandMsgBuilder struct {
	src, dst sim.RemotePort
	cmd      Command
}

// WithSrc sets the source of the message.
func (b CommandMsgBuilder) WithSrc(src sim.RemotePort) CommandMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message.
func (b CommandMsgBuilder) WithDst(dst sim.RemotePort) CommandMsgBuilder {
	b.dst = dst
	return b
}

// WithCmd sets the command carried by the message.
func (b CommandMsgBuilder) WithCmd(cmd Command) CommandMsgBuilder {
	b.cmd = cmd
	return b
}

// Build creates the message.
func (b CommandMsgBuilder) Build() *CommandMsg {
	m := &CommandMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.Cmd = b.cmd

	return m
}

// A ChunkMsg carries one serializer-width chunk over the queue channel.
type ChunkMsg struct {
	sim.MsgMeta

	Chunk Chunk
}

// Meta returns the meta data of the message.
func (m *ChunkMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a cloned ChunkMsg with a different ID.
func (m *ChunkMsg) Clone() sim.Msg {
	c := *m
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// ChunkMsgBuilder builds chunk messages.
type ChunkMsgBuilder struct {
	src, dst sim.RemotePort
	chunk    Chunk
}

// WithSrc sets the source of the message.
func (b ChunkMsgBuilder) WithSrc(src sim.RemotePort) ChunkMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message.
func (b ChunkMsgBuilder) WithDst(dst sim.RemotePort) ChunkMsgBuilder {
	b.dst = dst
	return b
}

// WithChunk sets the chunk carried by the message.
func (b ChunkMsgBuilder) WithChunk(c Chunk) ChunkMsgBuilder {
	b.chunk = c
	return b
}

// Build creates the message.
func (b ChunkMsgBuilder) Build() *ChunkMsg {
	m := &ChunkMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.Chunk = b.chunk

	return m
}
