package system

import "time"

// Phase defines execution ordering within a single tick. The simulation
// driver registers one system per phase; the order is the contract that
// makes combat outcomes and economy accounting reproducible.
type Phase int

const (
	PhaseDrain       Phase = iota // 0: drain the command queue, apply intents
	PhaseMovement                 // 1: action queues → desired velocities
	PhaseTurrets                  // 2: advance turret orientations
	PhaseTargeting                // 3: acquire / release weapon targets
	PhaseFiring                   // 4: cooldowns elapse, projectiles spawn
	PhaseProjectiles              // 5: advance bodies, re-evaluate beams, damage
	PhaseEconomy                  // 6: income + construction/production draw
	PhaseCompletion               // 7: buildings complete, factories spawn
	PhaseDeath                    // 8: flush destroy queue, emit death batch
	PhaseWin                      // 9: commander count → game over
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
