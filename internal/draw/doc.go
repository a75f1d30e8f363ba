// Package draw computes and audits Secret Santa assignments.
//
// Generate produces a derangement of the participant list: every
// participant gives to exactly one other participant and nobody draws
// themselves. It shuffles with Fisher-Yates and rejects shuffles that
// contain a fixed point, up to a bounded number of attempts.
//
// Validate and Audit inspect an existing Draw without modifying it and
// report every structural problem they find.
//
// Nothing in this package touches storage or shared state, so all
// functions are safe for concurrent use.
package draw
