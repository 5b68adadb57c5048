// ABOUTME: Capability evaluation for chat and management operations
// ABOUTME: Single source of truth consulted before every gated mutation

// Package permission implements the capability model shared by the whole
// product: a fixed enumerated set of capabilities, per-employee flag sets,
// and a pure evaluator that answers "may this actor do X".
//
// Two roles exist. BOSS is the tenant owner and evaluates true for every
// capability regardless of stored flags - this is an architectural
// invariant, not a default. EMPLOYEE capabilities reflect the stored flag
// set, with absent flags treated as false.
//
// The evaluator is stateless and performs no I/O, so callers can consult it
// synchronously on every inbound event before touching any state.
package permission
