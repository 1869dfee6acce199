// Package location holds the address of the page. Changing the hash
// notifies the registered hash listeners.
package location
