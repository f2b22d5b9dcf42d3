package replication

import (
	"sync"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/game"
)

// Sink receives encoded snapshot packets. Sessions implement it; a Send that
// can't keep up drops the packet rather than stalling the tick; the next
// snapshot supersedes it anyway.
type Sink interface {
	SendPacket(data []byte)
}

// TickSource is the authoritative side the replicator reads after each tick.
// The sim driver implements it.
type TickSource interface {
	TickCount() uint64
	Store() *game.Store
	Ledger() *game.Ledger
	DrainAudio() []game.AudioCue
	Sprays() []game.SprayTarget
	Winner() (game.PlayerID, bool)
}

// Replicator ships full snapshots to every registered sink on a fixed tick
// cadence. Audio cues accumulate in the driver between snapshots and are
// drained only when one actually ships.
type Replicator struct {
	cadence uint64 // snapshot every N ticks
	log     *zap.Logger

	mu    sync.Mutex
	sinks map[Sink]struct{}
}

func NewReplicator(cadence uint64, log *zap.Logger) *Replicator {
	if cadence == 0 {
		cadence = 1
	}
	return &Replicator{
		cadence: cadence,
		log:     log,
		sinks:   make(map[Sink]struct{}),
	}
}

func (r *Replicator) AddSink(s Sink) {
	r.mu.Lock()
	r.sinks[s] = struct{}{}
	r.mu.Unlock()
}

func (r *Replicator) RemoveSink(s Sink) {
	r.mu.Lock()
	delete(r.sinks, s)
	r.mu.Unlock()
}

// AfterTick runs on the tick goroutine after the driver advances. On cadence
// ticks it builds one snapshot, encodes it once, and fans the same bytes out
// to every sink.
func (r *Replicator) AfterTick(src TickSource) {
	if src.TickCount()%r.cadence != 0 {
		return
	}
	winner, over := src.Winner()
	ngs := BuildSnapshot(src.Store(), src.Ledger(), src.TickCount(), src.DrainAudio(), src.Sprays(), winner, over)
	data := EncodeSnapshot(ngs)

	r.mu.Lock()
	sinks := make([]Sink, 0, len(r.sinks))
	for s := range r.sinks {
		sinks = append(sinks, s)
	}
	r.mu.Unlock()

	for _, s := range sinks {
		s.SendPacket(data)
	}
	r.log.Debug("snapshot shipped",
		zap.Uint64("tick", ngs.Tick),
		zap.Int("entities", len(ngs.Entities)),
		zap.Int("bytes", len(data)),
		zap.Int("sinks", len(sinks)))
}
