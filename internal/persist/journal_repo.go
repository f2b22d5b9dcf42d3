package persist

import (
	"context"
	"fmt"

	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/replication"
)

// JournalRepo appends accepted commands to the match journal. The journal is
// an audit trail, not a recovery log: a failed append never blocks the
// command from executing.
type JournalRepo struct {
	db      *DB
	matchID int64
}

func NewJournalRepo(db *DB, matchID int64) *JournalRepo {
	return &JournalRepo{db: db, matchID: matchID}
}

// AppendBatch writes a batch of commands in one transaction. The payload is
// each command's wire encoding, so a journal replay tool shares the codec
// with the live protocol.
func (r *JournalRepo) AppendBatch(ctx context.Context, cmds []game.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range cmds {
		cmd := &cmds[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO command_journal (match_id, player, cmd_type, payload)
			 VALUES ($1, $2, $3, $4)`,
			r.matchID, int32(cmd.Player), int16(cmd.Type), replication.EncodeCommand(cmd),
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
