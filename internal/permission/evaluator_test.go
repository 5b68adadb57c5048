// ABOUTME: Tests for the capability evaluator
// ABOUTME: Covers BOSS override, employee flag fidelity, and unknown capabilities

package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_BossHoldsEveryCapability(t *testing.T) {
	e := NewEvaluator(true)

	actors := []Actor{
		{Role: RoleBoss, Flags: nil},
		{Role: RoleBoss, Flags: FlagSet{}},
		{Role: RoleBoss, Flags: FlagSet{CapViewProjects: false, CapDeleteTasks: false}},
	}

	for _, actor := range actors {
		for _, cap := range Capabilities() {
			assert.True(t, e.Evaluate(actor, cap), "BOSS must hold %s regardless of flags", cap)
		}
	}
}

func TestEvaluate_EmployeeReflectsStoredFlags(t *testing.T) {
	e := NewEvaluator(true)

	actor := Actor{
		Role: RoleEmployee,
		Flags: FlagSet{
			CapViewProjects: true,
			CapCreateTasks:  true,
			CapDeleteTasks:  false,
		},
	}

	assert.True(t, e.Evaluate(actor, CapViewProjects))
	assert.True(t, e.Evaluate(actor, CapCreateTasks))
	assert.False(t, e.Evaluate(actor, CapDeleteTasks), "explicit false")
	assert.False(t, e.Evaluate(actor, CapManageCompany), "absent flag reads false")
}

func TestEvaluate_EmployeeWithNilFlags(t *testing.T) {
	e := NewEvaluator(true)
	actor := Actor{Role: RoleEmployee}

	for _, cap := range Capabilities() {
		assert.False(t, e.Evaluate(actor, cap))
	}
}

func TestEvaluate_UnknownCapabilityPanicsInStrictMode(t *testing.T) {
	e := NewEvaluator(true)
	actor := Actor{Role: RoleBoss}

	require.Panics(t, func() {
		e.Evaluate(actor, Capability("viewProjcts"))
	})
}

func TestEvaluate_UnknownCapabilityDeniesInLenientMode(t *testing.T) {
	e := NewEvaluator(false)

	// Even BOSS is denied an unknown capability - never silently grant.
	assert.False(t, e.Evaluate(Actor{Role: RoleBoss}, Capability("nope")))
	assert.False(t, e.Evaluate(Actor{Role: RoleEmployee}, Capability("nope")))
}

func TestHasAllAndHasAny(t *testing.T) {
	e := NewEvaluator(true)

	actor := Actor{
		Role:  RoleEmployee,
		Flags: FlagSet{CapViewProjects: true, CapViewTasks: true},
	}

	assert.True(t, e.HasAll(actor, CapViewProjects, CapViewTasks))
	assert.False(t, e.HasAll(actor, CapViewProjects, CapDeleteProjects))
	assert.True(t, e.HasAny(actor, CapDeleteProjects, CapViewTasks))
	assert.False(t, e.HasAny(actor, CapDeleteProjects, CapManageCompany))

	// Vacuous truth / falsity on empty lists.
	assert.True(t, e.HasAll(actor))
	assert.False(t, e.HasAny(actor))
}

func TestFlagSet_MergeAndClone(t *testing.T) {
	base := FlagSet{CapViewProjects: true, CapViewTasks: false}
	overlay := FlagSet{CapViewTasks: true, CapExportData: true}

	merged := base.Merge(overlay)
	assert.True(t, merged[CapViewProjects], "retained from base")
	assert.True(t, merged[CapViewTasks], "overlay wins")
	assert.True(t, merged[CapExportData])

	// Merge must not mutate the receiver.
	assert.False(t, base[CapViewTasks])

	clone := base.Clone()
	clone[CapViewProjects] = false
	assert.True(t, base[CapViewProjects])
}

func TestCapabilities_StableAndValid(t *testing.T) {
	caps := Capabilities()
	require.Len(t, caps, 21)
	seen := make(map[Capability]bool)
	for _, c := range caps {
		assert.True(t, c.Valid())
		assert.False(t, seen[c], "duplicate capability %s", c)
		seen[c] = true
	}
	assert.False(t, Capability("").Valid())
}
