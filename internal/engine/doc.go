// Package engine implements the campaign processing engine: a long-running
// loop per active campaign that selects unworked leads, allocates
// quota-limited sender identities, renders personalized content, dispatches
// email with bounded retries, and records per-recipient outcomes.
//
// Cancellation is cooperative. Stop flips the campaign to STOPPING and the
// loop observes the flag at the top of its next iteration, so a stop request
// can take up to one full job's processing time to take effect.
package engine
