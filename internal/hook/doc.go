// Package hook provides the registry modules use to intercept host functions.
//
// The Registry sits in front of a host.Interceptor and adds the guarantees
// independently written modules need from each other:
//
//   - Deterministic order: hooks on a function run highest priority first,
//     ties in registration order.
//   - Idempotent registration: registering the same *Callback twice on a
//     function is a no-op, so a module may re-run its load step freely.
//   - Scoped removal: hooks carry an owner tag and can be removed per owner
//     without touching anyone else's hooks.
//
// # Priority System
//
// Standard priorities:
//
//	PriorityObserve          = 0    // look at calls, always call next
//	PriorityAddBehavior      = 1    // add side effects around next
//	PriorityModifyBehavior   = 5    // change arguments or results
//	PriorityOverrideBehavior = 10   // may skip next entirely
//	PriorityTop              = 100  // must run before everything else
//
// # Usage Example
//
//	reg := hook.NewRegistry(rt)
//
//	cb := hook.NewCallback("raw-text", func(args []any, next host.Next) any {
//	    if debug {
//	        return args[0]
//	    }
//	    return next(args...)
//	})
//
//	remove, err := reg.Register("TextGet", hook.PriorityModifyBehavior, cb, "DebugModule")
//	if err != nil {
//	    return err
//	}
//	defer remove()
//
//	// later, drop everything DebugModule installed
//	reg.RemoveAllByOwner("DebugModule")
package hook
