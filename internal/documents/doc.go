// Package documents stores the files attached to a client or trip.
//
// Files live under paths.documents_dir in one folder per client, named by
// FolderName. Downloads go through short-lived signed URLs: an HMAC-SHA256
// over "folder/name:expires" keyed by documents.signing_key.
package documents
