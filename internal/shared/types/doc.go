// Package types provides shared data structures for the application core.
//
// Core Types:
//   - Event: Published message, a mapping of named properties to values
//   - Filter: Exact-match property pattern used by subscribers
//   - State: Module lifecycle state (created, started, ended, failed)
//   - ModuleInfo, Stats: Registry snapshots
//
// Events must stay serializable (no funcs, channels or cycles) so they can
// be deep-cloned before delivery:
//
//	evt := types.Event{"name": "search", "query": "contract"}
//	if err := evt.Validate(); err != nil {
//	    return err
//	}
//	copy := evt.Clone()
package types
