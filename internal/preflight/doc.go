// Package preflight provides readiness checks for the filesystem paths,
// database, and outbound services agencyboard depends on.
//
// These checks run in two contexts:
//   - "agencyboard serve" calls RunAll before binding the API and refuses to
//     start when a required check fails.
//   - "agencyboard preflight" prints every result, including the optional
//     service checks, so an operator can fix configuration before serving.
//
// Optional services that are not configured are reported as skipped, never
// as failures.
package preflight
