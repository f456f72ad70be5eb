// Package store persists board records in SQLite.
//
// It is the table store behind every board: records, the per-passenger
// locators committed on emission, and the internal cost lines that go with
// them. Statuses are stored verbatim; classification into stages happens on
// read in the pipeline package. Writes retry on SQLITE_BUSY and the schema
// is evolved through embedded, ordered migrations.
package store
