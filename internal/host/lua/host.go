package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modkit/internal/host"
)

// Host runs host functions as Lua globals and intercepts them through a
// host.Runtime.
type Host struct {
	L      *lua.LState
	bridge *Bridge
	rt     *host.Runtime

	// originals holds the Lua function each patched global had before its
	// first hook was installed.
	originals map[string]*lua.LFunction

	unloaded bool
	closed   bool
}

// NewHost creates a host with the base, table, string and math libraries.
func NewHost() *Host {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	return &Host{
		L:         L,
		bridge:    NewBridge(L),
		rt:        host.NewRuntime(),
		originals: make(map[string]*lua.LFunction),
	}
}

// openSafeLibraries opens only Lua libraries without OS or file access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoString executes Lua source.
func (h *Host) DoString(code string) error {
	if h.closed {
		return ErrHostClosed
	}
	return h.doWithRecovery(func() error {
		return h.L.DoString(code)
	})
}

// DoFile executes a Lua file.
func (h *Host) DoFile(path string) error {
	if h.closed {
		return ErrHostClosed
	}
	return h.doWithRecovery(func() error {
		return h.L.DoFile(path)
	})
}

func (h *Host) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Define exposes a Go function to Lua as a global.
// On a global that is already hooked, fn becomes the end of the chain.
func (h *Host) Define(name string, fn host.Func) error {
	if h.closed {
		return ErrHostClosed
	}
	if fn == nil {
		return fmt.Errorf("define %q: %w", name, host.ErrNilFunction)
	}

	if _, patched := h.originals[name]; patched {
		return h.rt.Define(name, fn)
	}

	h.L.SetGlobal(name, h.L.NewFunction(func(L *lua.LState) int {
		L.Push(h.bridge.ToLuaValue(fn(h.bridge.StackArgs(L)...)))
		return 1
	}))
	return nil
}

// HookFunction implements host.Interceptor.
func (h *Host) HookFunction(name string, priority int, fn host.HookFunc) (func(), error) {
	if h.closed {
		return nil, fmt.Errorf("hook %q: %w", name, ErrHostClosed)
	}
	if h.unloaded {
		return nil, fmt.Errorf("hook %q: %w", name, host.ErrUnloaded)
	}
	if err := h.patch(name); err != nil {
		return nil, fmt.Errorf("hook %q: %w", name, err)
	}
	return h.rt.HookFunction(name, priority, fn)
}

// patch swaps the named global for a dispatcher running its hook chain.
func (h *Host) patch(name string) error {
	if _, ok := h.originals[name]; ok {
		return nil
	}

	global := h.L.GetGlobal(name)
	original, ok := global.(*lua.LFunction)
	if !ok {
		if global == lua.LNil {
			return host.ErrUnknownFunction
		}
		return ErrNotFunction
	}

	if err := h.rt.Define(name, func(args ...any) any {
		return h.callLua(original, args)
	}); err != nil {
		return err
	}

	h.originals[name] = original
	h.L.SetGlobal(name, h.L.NewFunction(h.dispatch(name)))
	return nil
}

// dispatch returns the Lua-callable entry point of a patched global.
func (h *Host) dispatch(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		res, err := h.rt.Call(name, h.bridge.StackArgs(L)...)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(h.bridge.ToLuaValue(res))
		return 1
	}
}

// callLua calls fn with Go arguments. It must run inside a protected Lua
// call; Lua errors are re-raised to that frame.
func (h *Host) callLua(fn *lua.LFunction, args []any) any {
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, h.bridge.ToLuaValues(args)...); err != nil {
		h.L.RaiseError("%s", err.Error())
		return nil
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return h.bridge.ToGoValue(ret)
}

// Call invokes a global function, through its hook chain when hooked.
func (h *Host) Call(name string, args ...any) (res any, err error) {
	if h.closed {
		return nil, ErrHostClosed
	}

	global := h.L.GetGlobal(name)
	fn, ok := global.(*lua.LFunction)
	if !ok {
		if global == lua.LNil {
			return nil, fmt.Errorf("call %q: %w", name, host.ErrUnknownFunction)
		}
		return nil, fmt.Errorf("call %q: %w", name, ErrNotFunction)
	}

	err = h.doWithRecovery(func() error {
		if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, h.bridge.ToLuaValues(args)...); err != nil {
			return fmt.Errorf("call %q: %w", name, err)
		}
		ret := h.L.Get(-1)
		h.L.Pop(1)
		res = h.bridge.ToGoValue(ret)
		return nil
	})
	return res, err
}

// Patched reports whether name has been swapped for a dispatcher.
func (h *Host) Patched(name string) bool {
	_, ok := h.originals[name]
	return ok
}

// Unload implements host.Interceptor. It removes every hook and restores
// the original globals.
func (h *Host) Unload() {
	h.rt.Unload()
	h.unloaded = true
	if h.closed {
		return
	}
	for name, original := range h.originals {
		h.L.SetGlobal(name, original)
	}
	h.originals = make(map[string]*lua.LFunction)
}

// Close releases the Lua state.
func (h *Host) Close() error {
	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}
