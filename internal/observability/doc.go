// Package observability provides event logging and metrics calculation for
// the task server. It uses structured JSON Lines (JSONL) for event
// persistence and derives metrics on-demand from the event log.
package observability
