// Package export implements the DIY export domain: typed job and file
// entities parsed from Graph API records, an enumeration service over
// the paginated list endpoints, and the orchestrator that materializes
// a full export on disk with per-file failure isolation.
package export
