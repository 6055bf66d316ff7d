// Package usage tracks metered feature consumption against per-user
// subscription quotas.
//
// The central type is Tracker, which binds the pure policy evaluation
// in pkg/entitlement to one user's live tier and counters. A Tracker
// reads a Snapshot once at construction, answers entitlement questions
// against that cached snapshot, and performs the single mutating
// operation (Track) through a Store.
//
// Correctness model: the client-side pre-check in Track is only a UX
// short-circuit. The Store's Increment operation is atomic and
// conditional ("add iff the result stays within the limit") and is the
// sole source of truth; two trackers racing on stale snapshots cannot
// overrun a quota because the store rejects the excess increment.
//
// Counters live in UTC calendar windows. Each metered feature keeps a
// daily value keyed by day, a monthly value keyed by month, and a
// cumulative total that never resets. Rollover is implicit: when the
// stored window key differs from the current one the value reads as
// zero and the next increment restarts the window.
//
// Stores provided: MemoryStore (tests and local development),
// MongoStore (production persistence), and CachedStore (a redis
// read-through snapshot cache decorating any Store).
package usage
