// Package host models the application being extended: a table of named
// functions whose calls can be intercepted.
//
// Interception follows the decorator chain model. Every hook installed on a
// function receives the call arguments and a Next continuation that runs the
// rest of the chain, ending with the original function:
//
//	rt := host.NewRuntime()
//	rt.Define("TextGet", func(args ...any) any { return lookup(args[0].(string)) })
//
//	remove, err := rt.HookFunction("TextGet", 5, func(args []any, next host.Next) any {
//	    return strings.ToUpper(next(args...).(string))
//	})
//
// Hooks run in descending priority order; hooks sharing a priority run in
// the order they were installed. A hook may call next zero, one or several
// times and may change the arguments it passes on. Exactly one value is
// returned to the caller.
//
// # Thread Safety
//
// The function table is guarded by a mutex, but a chain runs on the calling
// goroutine against a snapshot of the hooks taken when the call starts.
// Hooks installed or removed during a call affect the next call only.
package host
