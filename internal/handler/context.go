// Package handler holds the packet handlers. Dispatch runs on the tick
// goroutine, so handlers touch game state (queue, ledger) without locks;
// anything slow (database auth) gets its own bounded context.
package handler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/config"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/net"
	"github.com/steelfront/server/internal/net/packet"
	"github.com/steelfront/server/internal/persist"
)

// Roster maps account names to match player ids. An account that rejoins
// gets its old player id back and resumes command over its entities.
type Roster struct {
	mu        sync.Mutex
	byAccount map[string]game.PlayerID
	next      int32
}

func NewRoster() *Roster {
	return &Roster{byAccount: make(map[string]game.PlayerID), next: 1}
}

// PlayerFor returns the account's player id, allocating one on first join.
func (ro *Roster) PlayerFor(account string) (game.PlayerID, bool) {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	if p, ok := ro.byAccount[account]; ok {
		return p, false
	}
	p := game.PlayerID(ro.next)
	ro.next++
	ro.byAccount[account] = p
	return p, true
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo   // nil when the database is disabled
	Journal     *persist.JournalWriter // nil when the database is disabled
	Config      *config.Config
	Log         *zap.Logger
	Queue       *game.CommandQueue
	Ledger      *game.Ledger
	Table       *data.Table
	Roster      *Roster
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.CJoin,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleJoin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.CCommand,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleCommand(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.CPing,
		[]packet.SessionState{packet.StateHandshake, packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)
}
