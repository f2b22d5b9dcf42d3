package game

// EconomyState is one player's energy account.
type EconomyState struct {
	Stockpile    float64
	MaxStockpile float64
	BaseIncome   float64 // per second, independent of buildings
	Production   float64 // per second from generator buildings, last tick
	Expenditure  float64 // drawn by construction/production, last tick
}

// Ledger maintains every player's stockpile and mediates contention between
// construction and production drawing in the same tick: the spending pot is
// fixed once per tick at the post-income balance and consumed additively, so
// no consumer can overdraw on the strength of another's request.
type Ledger struct {
	players map[PlayerID]*EconomyState
	pot     map[PlayerID]float64
}

func NewLedger() *Ledger {
	return &Ledger{
		players: make(map[PlayerID]*EconomyState),
		pot:     make(map[PlayerID]float64),
	}
}

// AddPlayer registers an account. Re-adding an existing player resets it.
func (l *Ledger) AddPlayer(p PlayerID, start, max, baseIncome float64) {
	l.players[p] = &EconomyState{
		Stockpile:    clamp(start, 0, max),
		MaxStockpile: max,
		BaseIncome:   baseIncome,
	}
}

// Players returns the registered player ids in ascending order.
func (l *Ledger) Players() []PlayerID {
	out := make([]PlayerID, 0, len(l.players))
	for p := range l.players {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// State returns a player's account, or false if unregistered.
func (l *Ledger) State(p PlayerID) (*EconomyState, bool) {
	st, ok := l.players[p]
	return st, ok
}

// Credit applies income (base + generator production) and fixes the tick's
// spending pot at the resulting balance. Called once per player per tick,
// before any draw.
func (l *Ledger) Credit(p PlayerID, production float64, dt float64) {
	st, ok := l.players[p]
	if !ok {
		return
	}
	st.Production = production
	st.Expenditure = 0
	st.Stockpile = clamp(st.Stockpile+(st.BaseIncome+production)*dt, 0, st.MaxStockpile)
	l.pot[p] = st.Stockpile
}

// TrySpend draws up to amount from the player's tick pot and returns what
// was actually drawn. Never overdraws, never goes negative; callers must
// compute progress from the returned value, not the request.
func (l *Ledger) TrySpend(p PlayerID, amount float64) float64 {
	st, ok := l.players[p]
	if !ok || amount <= 0 {
		return 0
	}
	pot := l.pot[p]
	spent := amount
	if spent > pot {
		spent = pot
	}
	l.pot[p] = pot - spent
	st.Stockpile = clamp(st.Stockpile-spent, 0, st.MaxStockpile)
	st.Expenditure += spent
	return spent
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
