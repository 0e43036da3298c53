// Package reconcile implements the two-replica last-writer-wins
// synchronizer at the heart of todosync.
//
// A sync run has three phases:
//
//  1. Diff: both replicas are listed and every record id is classified
//     by comparing updated_at timestamps at millisecond precision. The
//     result is a Plan of create/update operations; records present on
//     both sides with equal timestamps produce no operation, and
//     records without a usable timestamp are excluded rather than
//     guessed at.
//
//  2. Apply: operations execute strictly sequentially, each with
//     bounded retry on transient failure. A record that keeps failing
//     is recorded in the Report and the run continues; one broken
//     record must not abort the whole sync.
//
//  3. Report: counts per category plus one entry per failed record.
//
// The reconciler holds no connection state of its own; both sides are
// reached only through the replica.Accessor interface, so the same
// algorithm serves file-to-http, sqlite-to-http, or any other pairing.
//
// Deletions are intentionally not reconciled: without tombstones, a
// record deleted on one side would simply be recreated from the other.
package reconcile
