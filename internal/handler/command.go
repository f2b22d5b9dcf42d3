package handler

import (
	"go.uber.org/zap"

	"github.com/steelfront/server/internal/net"
	"github.com/steelfront/server/internal/net/packet"
	"github.com/steelfront/server/internal/replication"
)

// HandleCommand decodes one CCommand and hands it to the authoritative
// queue. The command is stamped with the session's player id; whatever the
// client claims about identity is ignored. View-local commands (selection)
// never cross the network boundary; one arriving here is a client bug and is
// dropped.
func HandleCommand(sess *net.Session, r *packet.Reader, deps *Deps) {
	cmd := replication.DecodeCommand(r)
	if cmd.ViewLocal() {
		deps.Log.Warn("view-local command over the wire, dropped",
			zap.String("type", cmd.Type.String()),
			zap.Int32("player", int32(sess.Player())))
		return
	}
	cmd.Player = sess.Player()
	deps.Queue.Enqueue(cmd)

	// The journal writer only buffers here; batches flush to the database
	// off the tick goroutine.
	if deps.Journal != nil {
		deps.Journal.Record(cmd)
	}
}
