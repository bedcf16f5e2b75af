package sim

// A Msg is a piece of information transferred between components through
// ports. The SPI model exchanges command-granularity and chunk-granularity
// messages; both implement this interface.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta is the meta data attached to every message.
type MsgMeta struct {
	ID       string
	Src, Dst RemotePort
}
