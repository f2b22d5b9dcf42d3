package persist

import "context"

type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Begin records a new match and returns its id for the journal.
func (r *MatchRepo) Begin(ctx context.Context, scenario string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO matches (scenario) VALUES ($1) RETURNING id`,
		scenario,
	).Scan(&id)
	return id, err
}

// Finish archives the result. winner is nil for an aborted match.
func (r *MatchRepo) Finish(ctx context.Context, id int64, winner *int32, finalTick uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE matches SET ended_at = NOW(), winner = $2, final_tick = $3 WHERE id = $1`,
		id, winner, int64(finalTick),
	)
	return err
}
