package replication

import (
	"fmt"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/net/packet"
)

const (
	entityFlagComplete = 1 << 0
	entityFlagGhost    = 1 << 1

	snapshotFlagGameOver = 1 << 0
)

// EncodeSnapshot writes a snapshot as an SSnapshot packet payload.
func EncodeSnapshot(ngs *NetworkGameState) []byte {
	w := packet.NewWriterWithOpcode(packet.SSnapshot)
	w.WriteQ(ngs.Tick)
	var flags byte
	if ngs.GameOver {
		flags |= snapshotFlagGameOver
	}
	w.WriteC(flags)
	w.WriteD(ngs.Winner)

	w.WriteH(uint16(len(ngs.Entities)))
	for i := range ngs.Entities {
		e := &ngs.Entities[i]
		w.WriteQ(e.ID)
		w.WriteC(byte(e.Kind))
		w.WriteD(e.Owner)
		w.WriteS(e.Type)
		w.WriteF(e.X)
		w.WriteF(e.Y)
		w.WriteF(e.Rot)
		w.WriteF(e.VelX)
		w.WriteF(e.VelY)
		w.WriteF(e.HP)
		w.WriteF(e.MaxHP)
		w.WriteF(e.Radius)
		w.WriteF(e.Progress)
		var ef byte
		if e.Complete {
			ef |= entityFlagComplete
		}
		if e.Ghost {
			ef |= entityFlagGhost
		}
		w.WriteC(ef)
		w.WriteQ(e.Target)
	}

	w.WriteH(uint16(len(ngs.Economies)))
	for i := range ngs.Economies {
		ec := &ngs.Economies[i]
		w.WriteD(ec.Player)
		w.WriteF(ec.Stockpile)
		w.WriteF(ec.MaxStockpile)
		w.WriteF(ec.Production)
		w.WriteF(ec.Expenditure)
	}

	w.WriteH(uint16(len(ngs.Audio)))
	for i := range ngs.Audio {
		a := &ngs.Audio[i]
		w.WriteC(byte(a.Kind))
		w.WriteQ(a.Source)
		w.WriteF(a.X)
		w.WriteF(a.Y)
	}

	w.WriteH(uint16(len(ngs.Sprays)))
	for i := range ngs.Sprays {
		sp := &ngs.Sprays[i]
		w.WriteQ(sp.Builder)
		w.WriteQ(sp.Site)
		w.WriteF(sp.X)
		w.WriteF(sp.Y)
	}
	return w.Bytes()
}

// DecodeSnapshot parses an SSnapshot payload.
func DecodeSnapshot(data []byte) (*NetworkGameState, error) {
	r := packet.NewReader(data)
	if r.Opcode() != packet.SSnapshot {
		return nil, fmt.Errorf("not a snapshot packet: opcode %d", r.Opcode())
	}
	ngs := &NetworkGameState{Tick: r.ReadQ()}
	flags := r.ReadC()
	ngs.GameOver = flags&snapshotFlagGameOver != 0
	ngs.Winner = r.ReadD()

	n := int(r.ReadH())
	ngs.Entities = make([]EntityRecord, 0, n)
	for i := 0; i < n; i++ {
		var e EntityRecord
		e.ID = r.ReadQ()
		e.Kind = game.Kind(r.ReadC())
		e.Owner = r.ReadD()
		e.Type = r.ReadS()
		e.X = r.ReadF()
		e.Y = r.ReadF()
		e.Rot = r.ReadF()
		e.VelX = r.ReadF()
		e.VelY = r.ReadF()
		e.HP = r.ReadF()
		e.MaxHP = r.ReadF()
		e.Radius = r.ReadF()
		e.Progress = r.ReadF()
		ef := r.ReadC()
		e.Complete = ef&entityFlagComplete != 0
		e.Ghost = ef&entityFlagGhost != 0
		e.Target = r.ReadQ()
		ngs.Entities = append(ngs.Entities, e)
	}

	n = int(r.ReadH())
	ngs.Economies = make([]EconomyRecord, 0, n)
	for i := 0; i < n; i++ {
		var ec EconomyRecord
		ec.Player = r.ReadD()
		ec.Stockpile = r.ReadF()
		ec.MaxStockpile = r.ReadF()
		ec.Production = r.ReadF()
		ec.Expenditure = r.ReadF()
		ngs.Economies = append(ngs.Economies, ec)
	}

	n = int(r.ReadH())
	ngs.Audio = make([]AudioRecord, 0, n)
	for i := 0; i < n; i++ {
		var a AudioRecord
		a.Kind = game.AudioCueKind(r.ReadC())
		a.Source = r.ReadQ()
		a.X = r.ReadF()
		a.Y = r.ReadF()
		ngs.Audio = append(ngs.Audio, a)
	}

	n = int(r.ReadH())
	ngs.Sprays = make([]SprayRecord, 0, n)
	for i := 0; i < n; i++ {
		var sp SprayRecord
		sp.Builder = r.ReadQ()
		sp.Site = r.ReadQ()
		sp.X = r.ReadF()
		sp.Y = r.ReadF()
		ngs.Sprays = append(ngs.Sprays, sp)
	}
	return ngs, nil
}

// EncodeCommand writes a command as a CCommand packet payload. The player
// field is not sent: the server stamps commands with the session's player,
// never the client's claim.
func EncodeCommand(c *game.Command) []byte {
	w := packet.NewWriterWithOpcode(packet.CCommand)
	w.WriteC(byte(c.Type))
	w.WriteH(uint16(len(c.Units)))
	for _, id := range c.Units {
		w.WriteQ(uint64(id))
	}
	w.WriteF(c.X)
	w.WriteF(c.Y)
	w.WriteQ(uint64(c.Target))
	w.WriteS(c.TypeID)
	w.WriteD(int32(c.Index))
	var flags byte
	if c.Append {
		flags |= 1
	}
	w.WriteC(flags)
	return w.Bytes()
}

// DecodeCommand parses a CCommand payload. Player is left zero for the
// session layer to stamp.
func DecodeCommand(r *packet.Reader) game.Command {
	var c game.Command
	c.Type = game.CommandType(r.ReadC())
	n := int(r.ReadH())
	for i := 0; i < n; i++ {
		c.Units = append(c.Units, ecs.EntityID(r.ReadQ()))
	}
	c.X = r.ReadF()
	c.Y = r.ReadF()
	c.Target = ecs.EntityID(r.ReadQ())
	c.TypeID = r.ReadS()
	c.Index = int(r.ReadD())
	c.Append = r.ReadC()&1 != 0
	return c
}
