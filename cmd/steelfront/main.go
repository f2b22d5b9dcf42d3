package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/steelfront/server/internal/config"
	"github.com/steelfront/server/internal/core/event"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/handler"
	gonet "github.com/steelfront/server/internal/net"
	"github.com/steelfront/server/internal/net/packet"
	"github.com/steelfront/server/internal/persist"
	"github.com/steelfront/server/internal/physics"
	"github.com/steelfront/server/internal/replication"
	"github.com/steelfront/server/internal/scripting"
	"github.com/steelfront/server/internal/sim"
)

// maxPacketsPerSessionTick bounds how much of one client's backlog a single
// tick will process.
const maxPacketsPerSessionTick = 32

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           steelfront  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       RTS simulation server in Go         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("STEELFRONT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional PostgreSQL: accounts, match archive, command journal
	var (
		db          *persist.DB
		accountRepo *persist.AccountRepo
		matchRepo   *persist.MatchRepo
		journal     *persist.JournalWriter
		matchID     int64
	)
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		accountRepo = persist.NewAccountRepo(db)
		matchRepo = persist.NewMatchRepo(db)
		matchID, err = matchRepo.Begin(ctx, cfg.Server.Scenario)
		if err != nil {
			cancel()
			return fmt.Errorf("begin match record: %w", err)
		}
		journal = persist.NewJournalWriter(persist.NewJournalRepo(db, matchID), 2*time.Second, log)
		defer journal.Close()
		cancel()
		fmt.Println()
	}

	// 4. Load blueprint tables and scenario
	printSection("data")

	table, err := data.LoadTable(
		filepath.Join(cfg.Server.DataDir, "unit_list.yaml"),
		filepath.Join(cfg.Server.DataDir, "building_list.yaml"),
		filepath.Join(cfg.Server.DataDir, "weapon_list.yaml"),
	)
	if err != nil {
		return fmt.Errorf("load blueprint tables: %w", err)
	}
	printStat("unit blueprints", table.UnitCount())
	printStat("building blueprints", table.BuildingCount())
	printStat("weapon blueprints", table.WeaponCount())

	scenario, err := data.LoadScenario(cfg.Server.Scenario, table)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printStat("scenario spawns", len(scenario.Spawns))

	// 5. Lua hooks (optional; built-in formulas cover a missing VM)
	scripts, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		log.Warn("lua scripts unavailable, using built-in formulas", zap.Error(err))
		scripts = nil
	} else {
		defer scripts.Close()
		printOK("lua hooks loaded")
	}
	fmt.Println()

	// 6. Build the match: store, queues, ledger, driver
	phys := physics.NewKinematic()
	store := game.NewStore(phys)
	queue := game.NewCommandQueue()
	ledger := game.NewLedger()
	bus := event.NewBus()

	driver := sim.NewDriver(sim.Deps{
		Store:   store,
		Queue:   queue,
		Ledger:  ledger,
		Table:   table,
		Bus:     bus,
		Physics: phys,
		Scripts: scripts,
		Log:     log,
	}, sim.Params{
		UnitCap:   cfg.Game.UnitCap,
		Perpetual: cfg.Game.Perpetual,
		Seed:      cfg.Game.Seed,
		RangeMultipliers: map[string]float64{
			data.TierSee:       cfg.Game.SeeRange,
			data.TierFire:      cfg.Game.FireRange,
			data.TierRelease:   cfg.Game.ReleaseRange,
			data.TierLock:      cfg.Game.LockRange,
			data.TierFightStop: cfg.Game.FightStopRange,
		},
	})
	if err := driver.ApplyScenario(scenario, cfg.Game.MaxStockpile, cfg.Game.BaseIncome); err != nil {
		return fmt.Errorf("apply scenario: %w", err)
	}

	// 7. Packet handlers
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		AccountRepo: accountRepo,
		Journal:     journal,
		Config:      cfg,
		Log:         log,
		Queue:       queue,
		Ledger:      ledger,
		Table:       table,
		Roster:      handler.NewRoster(),
	}
	handler.RegisterAll(pktReg, deps)

	// 8. Network server and replicator
	pktPerSec := 0
	if cfg.RateLimit.Enabled {
		pktPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		pktPerSec,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	replicator := replication.NewReplicator(cfg.Replication.Cadence, log)

	// 9. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	sessions := make(map[uint64]*gonet.Session)
	archived := false

	for {
		select {
		case <-ticker.C:
			adoptSessions(netServer, replicator, sessions)
			pumpSessions(pktReg, netServer, replicator, sessions, log)

			driver.Tick(cfg.Network.TickRate)
			replicator.AfterTick(driver)

			for _, sess := range sessions {
				sess.FlushOutput()
			}

			if winner, over := driver.Winner(); over && !archived {
				archived = true
				broadcastGameOver(sessions, winner)
				archiveMatch(matchRepo, matchID, &winner, driver.TickCount(), log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if !archived {
				archiveMatch(matchRepo, matchID, nil, driver.TickCount(), log)
			}
			for _, sess := range sessions {
				sess.Close()
			}
			netServer.Shutdown()
			log.Info("server stopped")
			return nil
		}
	}
}

// adoptSessions folds newly accepted connections into the tick's session set
// and subscribes them to snapshots.
func adoptSessions(srv *gonet.Server, rep *replication.Replicator, sessions map[uint64]*gonet.Session) {
	for {
		select {
		case sess := <-srv.NewSessions():
			sessions[sess.ID] = sess
			rep.AddSink(sess)
		default:
			return
		}
	}
}

// pumpSessions dispatches each session's queued packets and reaps dead ones.
func pumpSessions(reg *packet.Registry, srv *gonet.Server, rep *replication.Replicator, sessions map[uint64]*gonet.Session, log *zap.Logger) {
	for id, sess := range sessions {
		if sess.IsClosed() {
			rep.RemoveSink(sess)
			delete(sessions, id)
			srv.NotifyDead(id)
			continue
		}
	drain:
		for i := 0; i < maxPacketsPerSessionTick; i++ {
			select {
			case pkt := <-sess.InQueue:
				if err := reg.Dispatch(sess, sess.State(), pkt); err != nil {
					log.Debug("dispatch error", zap.Uint64("session", id), zap.Error(err))
				}
			default:
				break drain
			}
		}
	}
}

func broadcastGameOver(sessions map[uint64]*gonet.Session, winner game.PlayerID) {
	w := packet.NewWriterWithOpcode(packet.SGameOver)
	w.WriteD(int32(winner))
	data := w.Bytes()
	for _, sess := range sessions {
		sess.Send(data)
	}
}

func archiveMatch(repo *persist.MatchRepo, matchID int64, winner *game.PlayerID, finalTick uint64, log *zap.Logger) {
	if repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var w *int32
	if winner != nil {
		v := int32(*winner)
		w = &v
	}
	if err := repo.Finish(ctx, matchID, w, finalTick); err != nil {
		log.Error("match archive failed", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
