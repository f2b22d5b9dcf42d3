package game

import (
	"sync"

	"github.com/steelfront/server/internal/core/ecs"
)

// CommandType tags a command variant.
type CommandType byte

const (
	CmdMove CommandType = iota
	CmdPatrol
	CmdFight
	CmdBuild
	CmdRepair
	CmdSelect
	CmdClearSelection
	CmdQueueUnit
	CmdCancelQueueItem
	CmdToggleSpecialFire
)

func (t CommandType) String() string {
	switch t {
	case CmdMove:
		return "move"
	case CmdPatrol:
		return "patrol"
	case CmdFight:
		return "fight"
	case CmdBuild:
		return "build"
	case CmdRepair:
		return "repair"
	case CmdSelect:
		return "select"
	case CmdClearSelection:
		return "clearSelection"
	case CmdQueueUnit:
		return "queueUnit"
	case CmdCancelQueueItem:
		return "cancelQueueItem"
	case CmdToggleSpecialFire:
		return "toggleSpecialFire"
	default:
		return "unknown"
	}
}

// Command is a tagged variant; each type reads only the fields it needs.
// A command referencing a destroyed entity or unknown blueprint is a no-op.
type Command struct {
	Type   CommandType
	Player PlayerID
	Units  []ecs.EntityID // subject units (move/patrol/fight/repair/select/toggle)
	X, Y   float64        // destination, or build cell origin
	Target ecs.EntityID   // repair target / factory for queue ops
	TypeID string         // building id (build) or unit id (queueUnit)
	Index  int            // queue slot for cancelQueueItem
	Append bool           // shift-queue: append to action queue instead of replacing
}

// ViewLocal reports whether the command only affects the issuing view's
// selection state. These are intercepted before the network boundary and
// never reach the authoritative queue from a remote client.
func (c *Command) ViewLocal() bool {
	return c.Type == CmdSelect || c.Type == CmdClearSelection
}

// CommandQueue is the FIFO intake between input/network producers and the
// tick body. Enqueue may be called from any goroutine; DrainAll is called
// once per tick by the driver and is the only synchronization point. The
// only ordering promise is FIFO within this queue instance; interleaving
// between local and network producers inside one tick window is undefined.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{items: make([]Command, 0, 64)}
}

func (q *CommandQueue) Enqueue(c Command) {
	q.mu.Lock()
	q.items = append(q.items, c)
	q.mu.Unlock()
}

// DrainAll atomically empties the queue and returns it in insertion order.
func (q *CommandQueue) DrainAll() []Command {
	q.mu.Lock()
	out := q.items
	q.items = make([]Command, 0, 64)
	q.mu.Unlock()
	return out
}

// Len reports the pending command count (diagnostics only).
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
