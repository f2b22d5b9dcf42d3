// Package scripting hosts the moddable combat formulas. Damage falloff and
// armor mitigation live in Lua so balance changes don't need a rebuild; every
// hook has a Go fallback so the simulation runs identically with no scripts
// loaded (tests run scriptless).
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// tick body).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts under the directory.
// A missing directory is not an error; the engine just answers with the
// built-in formulas.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"combat", "match"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// FalloffContext holds the inputs for a splash damage calculation.
type FalloffContext struct {
	BaseDamage      float64
	Distance        float64 // impact point → target
	PrimaryRadius   float64
	SecondaryRadius float64
}

// DamageFalloff returns the damage a target at the given distance receives:
// full inside the primary radius, scripted (default linear) falloff out to
// the secondary radius, zero beyond.
func (e *Engine) DamageFalloff(ctx FalloffContext) float64 {
	if e == nil {
		return DefaultFalloff(ctx)
	}
	fn := e.vm.GetGlobal("calc_damage_falloff")
	if fn == lua.LNil {
		return DefaultFalloff(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("distance", lua.LNumber(ctx.Distance))
	t.RawSetString("primary_radius", lua.LNumber(ctx.PrimaryRadius))
	t.RawSetString("secondary_radius", lua.LNumber(ctx.SecondaryRadius))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("lua calc_damage_falloff error", zap.Error(err))
		return DefaultFalloff(ctx)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		if v := float64(n); v >= 0 {
			return v
		}
	}
	return DefaultFalloff(ctx)
}

// DefaultFalloff is the built-in formula: full damage within the primary
// radius, linear falloff to zero at the secondary radius.
func DefaultFalloff(ctx FalloffContext) float64 {
	switch {
	case ctx.Distance <= ctx.PrimaryRadius:
		return ctx.BaseDamage
	case ctx.Distance >= ctx.SecondaryRadius || ctx.SecondaryRadius <= ctx.PrimaryRadius:
		return 0
	default:
		span := ctx.SecondaryRadius - ctx.PrimaryRadius
		return ctx.BaseDamage * (1 - (ctx.Distance-ctx.PrimaryRadius)/span)
	}
}

// OnMatchStart calls the optional match setup hook with the scenario name.
func (e *Engine) OnMatchStart(scenario string) {
	if e == nil {
		return
	}
	fn := e.vm.GetGlobal("on_match_start")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LString(scenario)); err != nil {
		e.log.Error("lua on_match_start error", zap.Error(err))
	}
}
