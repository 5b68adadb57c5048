// ABOUTME: Pure capability evaluator with BOSS universal override
// ABOUTME: Unknown capabilities panic in strict mode and never silently grant

package permission

import "fmt"

// Evaluator answers capability questions for actors. It is stateless and
// safe for concurrent use without locking.
type Evaluator struct {
	// strict makes unknown capability names panic instead of evaluating
	// false. Enabled in development and tests to surface programming
	// errors; production keeps it off so a bad name denies rather than
	// crashes.
	strict bool
}

// NewEvaluator creates an evaluator. strict controls the unknown-capability
// failure mode.
func NewEvaluator(strict bool) *Evaluator {
	return &Evaluator{strict: strict}
}

// Evaluate reports whether the actor holds the capability. BOSS evaluates
// true for every capability regardless of stored flags. EMPLOYEE reflects
// the stored flag, absent meaning false.
func (e *Evaluator) Evaluate(actor Actor, cap Capability) bool {
	if !cap.Valid() {
		if e.strict {
			panic(fmt.Sprintf("permission: unknown capability %q", cap))
		}
		return false
	}
	if actor.Role == RoleBoss {
		return true
	}
	return actor.Flags[cap]
}

// HasAll reports whether the actor holds every listed capability.
func (e *Evaluator) HasAll(actor Actor, caps ...Capability) bool {
	for _, c := range caps {
		if !e.Evaluate(actor, c) {
			return false
		}
	}
	return true
}

// HasAny reports whether the actor holds at least one listed capability.
func (e *Evaluator) HasAny(actor Actor, caps ...Capability) bool {
	for _, c := range caps {
		if e.Evaluate(actor, c) {
			return true
		}
	}
	return false
}
