package spisys

import (
	"github.com/sockitsim/spisim/datarecording"
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/ser"
)

// LineTraceEntry is one recorded state of the physical lines, written every
// time the serializer updates them.
type LineTraceEntry struct {
	Time  float64
	SCK   bool
	CS    uint8
	IO0   bool
	IO1   bool
	IO2   bool
	IO3   bool
	OutEn uint8
}

// lineTracer wraps the bus attached to the serializer and records every line
// update before forwarding it.
type lineTracer struct {
	timeTeller sim.TimeTeller
	recorder   datarecording.DataRecorder
	table      string
	inner      ser.Bus
}

// NewLineTracer wraps a bus so every line-state update is recorded in the
// given table.
func NewLineTracer(
	tt sim.TimeTeller,
	recorder datarecording.DataRecorder,
	table string,
	inner ser.Bus,
) ser.Bus {
	recorder.CreateTable(table, LineTraceEntry{})

	return &lineTracer{
		timeTeller: tt,
		recorder:   recorder,
		table:      table,
		inner:      inner,
	}
}

func (t *lineTracer) Step(ls ser.LineState) [spi.NumLines]bool {
	var outEn uint8
	for k := range ls.IO {
		if ls.IO[k].OutEn {
			outEn |= 1 << k
		}
	}

	t.recorder.InsertData(t.table, LineTraceEntry{
		Time:  float64(t.timeTeller.CurrentTime()),
		SCK:   ls.SCK,
		CS:    ls.CS,
		IO0:   ls.IO[0].Out,
		IO1:   ls.IO[1].Out,
		IO2:   ls.IO[2].Out,
		IO3:   ls.IO[3].Out,
		OutEn: outEn,
	})

	return t.inner.Step(ls)
}

// TransferTraceEntry is one completed command observed at the front-end's
// response port.
type TransferTraceEntry struct {
	Time    float64
	Length  int
	Mode    string
	Data    uint32
	InputEn bool
}

// transferTracer is a hook on the front-end response port that records every
// reassembled command.
type transferTracer struct {
	timeTeller sim.TimeTeller
	recorder   datarecording.DataRecorder
	table      string
}

// NewTransferTracer creates a hook that records completed transfers in the
// given table. Attach it to the front-end's response port.
func NewTransferTracer(
	tt sim.TimeTeller,
	recorder datarecording.DataRecorder,
	table string,
) sim.Hook {
	recorder.CreateTable(table, TransferTraceEntry{})

	return &transferTracer{
		timeTeller: tt,
		recorder:   recorder,
		table:      table,
	}
}

func (t *transferTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosPortMsgRecvd {
		return
	}

	msg, ok := ctx.Item.(*spi.CommandMsg)
	if !ok {
		return
	}

	t.recorder.InsertData(t.table, TransferTraceEntry{
		Time:    float64(t.timeTeller.CurrentTime()),
		Length:  msg.Cmd.Length,
		Mode:    msg.Cmd.Mode.String(),
		Data:    msg.Cmd.Data,
		InputEn: msg.Cmd.InputEn,
	})
}
