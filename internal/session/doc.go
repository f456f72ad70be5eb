// Package session carries the acting operator through the system.
//
// An Actor is passed explicitly into every operation that needs to know who
// is acting (the Transition Authority stamps handler names from it and checks
// the admin flag for overrides). HTTP handlers build one per request and may
// stash it in the request context with WithActor; nothing in this package is
// global.
package session
