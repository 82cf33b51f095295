// Package relay turns gateway scheduled event dispatches into per-field
// change notifications on the message bus.
package relay
