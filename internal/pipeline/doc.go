// Package pipeline models the kanban stage pipelines used by the agency
// back office.
//
// Each Board (commercial funnel, operations/emission funnel, quotations) has a
// fixed Registry of ordered stages. Raw statuses from the table store are
// folded onto exactly one registered stage by Registry.Classify, Project
// partitions a record collection into per-stage columns, and Authorize is the
// single place where stage transitions are judged. The operations funnel is
// the only guarded board; the others accept any move.
//
// Everything here is pure: no I/O, no clocks, no globals beyond the immutable
// registries. Callers that persist results live in the board package.
package pipeline
