// Package audit persists the kill switch audit trail. Every switch change
// produces one immutable Record; stores only ever append and prune, never
// update.
//
// Two backends are provided: an in-memory ring for tests and small
// deployments, and a SQLite store for durable trails. Audit writes happen on
// the admin path, never on the request path.
package audit
