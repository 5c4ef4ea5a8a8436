// Package lua hosts the extended application inside a gopher-lua state.
//
// Global Lua functions are the host functions. Hooking a global replaces it
// with a Go dispatcher that runs the hook chain and ends in the original Lua
// function, so Lua code calling the global sees the intercepted behaviour:
//
//	h := lua.NewHost()
//	defer h.Close()
//
//	_ = h.DoString(`function Greet(name) return "hello " .. name end`)
//
//	remove, _ := h.HookFunction("Greet", 0, func(args []any, next host.Next) any {
//	    return next(args...).(string) + "!"
//	})
//	defer remove()
//
//	v, _ := h.Call("Greet", "world") // "hello world!"
//
// Values crossing the boundary are converted by Bridge: booleans, numbers,
// strings, nil, and tables (sequences become []any, other tables
// map[string]any).
//
// A Host is not goroutine-safe: gopher-lua states must be driven from a
// single goroutine.
package lua
