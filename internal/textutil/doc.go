// Package textutil provides small text helpers shared by the document store
// and notifications: filename sanitization for uploads and token cleanup for
// ntfy tags.
package textutil
