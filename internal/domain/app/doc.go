// Package app is the application facade: an ordered registry of modules
// sharing one event bus and one options store.
//
// StartAll and EndAll walk the registry in insertion order. Modules never
// let a failure escape, so one broken module does not stop the others.
// Run hands both operations to the page, which calls them on load and
// unload.
package app
