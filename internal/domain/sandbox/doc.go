// Package sandbox builds the restricted capability surface handed to each
// module.
//
// A Sandbox is bound to one module id. Its box is the page element with
// that id, and every capability that takes an element first checks that
// the element is the box or lies below it. Operations outside the box are
// logged and turned into no-ops with neutral results.
//
// Capability groups (css, dom, events, i18n, server, url, utils) are
// attached by plugins in a fixed order. Each group registers its own
// cleanup with the sandbox, and Teardown releases DOM listeners, bus
// subscriptions, hash listeners and timers when the module ends.
package sandbox
