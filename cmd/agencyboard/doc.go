// Command agencyboard runs the travel-agency pipeline boards.
//
// "agencyboard serve" exposes the boards over an HTTP JSON API, polls the
// watched boards for new records, and publishes ntfy alerts. The remaining
// commands operate on the same SQLite table store directly, acting as the
// operator named in the [session] config section:
//
//	board show|stages      render a board's columns or stage list
//	record add|move|...    create, move, finalize, and remove records
//	docs list|upload|...   manage per-client document folders
//	webhook meeting|contract
//	config init|show|validate
//	notify test
//	preflight
package main
