// Package graph implements the HTTP transport for the Workplace Graph
// API: authenticated GET requests with typed error mapping, endpoint URL
// construction, and a cursor-following paginator over the standard
// {data, paging.next} list envelope.
package graph
