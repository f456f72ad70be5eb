// Package webhooks calls the automation endpoints that schedule client
// meetings and generate contracts.
//
// Both endpoints accept a JSON body and answer with a link somewhere in the
// response. Their response shapes have drifted over time, so ExtractLink
// walks a fixed list of field names before falling back to a bare URL body.
// Requests are never retried: scheduling twice books two meetings.
package webhooks
