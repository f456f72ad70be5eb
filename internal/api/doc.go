// Package api serves the board over HTTP and defines its wire types.
//
// # Routes
//
//	GET    /api/status
//	GET    /api/boards
//	GET    /api/boards/{board}
//	POST   /api/boards/{board}/refresh
//	POST   /api/boards/{board}/records
//	GET    /api/boards/{board}/records/{id}
//	DELETE /api/boards/{board}/records/{id}
//	GET    /api/boards/{board}/records/{id}/moves
//	POST   /api/boards/{board}/records/{id}/move
//	GET    /api/documents/{folder}
//	POST   /api/documents/{folder}
//	DELETE /api/documents/{folder}/{name}
//	GET    /api/documents/{folder}/{name}/url
//	GET    /files/{folder}/{name}?expires=&sig=
//	POST   /api/webhooks/meeting
//	POST   /api/webhooks/contract
//
// Every /api route requires "Authorization: Bearer <token>" when
// paths.api_token is set. /files is authorised by its signature instead.
// The acting operator is read from X-Actor-Id, X-Actor-Name and
// X-Actor-Admin and passed to the coordinator as an explicit session.Actor.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors are {"error": "..."} with optional reason and step fields; the
// status code follows the board error taxonomy (400 validation, 404 missing,
// 409 busy, 422 illegal transition, 502 remote or partial commit).
package api
