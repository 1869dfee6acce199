// Package document holds the page tree the modules render into.
//
// A Document wraps a parsed golang.org/x/net/html tree and adds what a
// browser page would give the application: element creation, DOM
// listeners with bubbling dispatch, and window load/unload events.
// Document satisfies the element factory and document service
// interfaces expected by the sandbox. It does not implement the optional
// initialize and dispose hooks, so module boxes stay on the page after
// their modules end unless a custom factory is configured.
//
// Document is safe for concurrent registration, but tree mutation is
// expected to happen on the event loop.
package document
