// Package audit implements the trusted application's append-only audit
// trail.
//
// Every state-mutating operation and every boundary-validation failure
// produces exactly one Event. Events are tagged with a strictly increasing
// sequence number and a coarse timestamp, buffered in a bounded in-memory
// log, and mirrored to structured logging. Recording never fails and never
// blocks the operation that triggered it: when the buffer is full the event
// is dropped, the sequence number still advances, and the drop is counted,
// so gaps are detectable after the fact.
//
// Event payloads carry identifiers and outcomes only. Nothing in this
// package accepts key material, and reviewers can hold that line by
// inspecting the Event type: there is no field a secret could travel in.
package audit
