// Package module wraps independently written widgets with a lifecycle.
//
// A Module moves from created to started to ended, and to failed when
// its widget returns an error or panics in any phase. No failure crosses
// the module boundary: errors are logged with the module id and the
// module degrades, so sibling modules keep working. End always releases
// what the widget registered through its sandbox.
package module
