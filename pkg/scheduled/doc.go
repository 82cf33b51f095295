// Package scheduled manages guild scheduled events on the platform API.
//
// A Manager stages a partial update against a known Snapshot and sends
// only the fields that changed; an Action does the same for creation.
// Paginator walks the users interested in an event page by page, and
// Diff/Emitter turn two snapshots of one event into per-field
// notifications.
//
// HTTP execution, authentication and rate limiting live behind the
// Requester interface.
package scheduled
