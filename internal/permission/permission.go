// ABOUTME: Role and Capability types plus the per-employee FlagSet
// ABOUTME: Capabilities are a closed enum so misspellings fail at compile time

package permission

// Role identifies the actor's position in the tenant.
type Role string

const (
	// RoleBoss is the tenant owner with universal capability override.
	RoleBoss Role = "BOSS"
	// RoleEmployee is a subordinate whose capabilities are individually flagged.
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBoss || r == RoleEmployee
}

// Capability is one named permission flag (e.g. "may view all projects").
type Capability string

// The full capability set. Grouped by the product area it gates.
const (
	// Projects
	CapViewProjects   Capability = "viewProjects"
	CapCreateProjects Capability = "createProjects"
	CapEditProjects   Capability = "editProjects"
	CapDeleteProjects Capability = "deleteProjects"

	// Tasks
	CapViewTasks   Capability = "viewTasks"
	CapCreateTasks Capability = "createTasks"
	CapEditTasks   Capability = "editTasks"
	CapDeleteTasks Capability = "deleteTasks"
	CapAssignTasks Capability = "assignTasks"

	// Employees
	CapViewEmployees     Capability = "viewEmployees"
	CapInviteEmployees   Capability = "inviteEmployees"
	CapEditEmployees     Capability = "editEmployees"
	CapRemoveEmployees   Capability = "removeEmployees"
	CapManagePermissions Capability = "managePermissions"

	// Teams
	CapViewTeams   Capability = "viewTeams"
	CapCreateTeams Capability = "createTeams"
	CapEditTeams   Capability = "editTeams"
	CapDeleteTeams Capability = "deleteTeams"

	// Advanced
	CapViewReports   Capability = "viewReports"
	CapExportData    Capability = "exportData"
	CapManageCompany Capability = "manageCompany"
)

// all is the closed set used for validation and enumeration.
var all = []Capability{
	CapViewProjects, CapCreateProjects, CapEditProjects, CapDeleteProjects,
	CapViewTasks, CapCreateTasks, CapEditTasks, CapDeleteTasks, CapAssignTasks,
	CapViewEmployees, CapInviteEmployees, CapEditEmployees, CapRemoveEmployees,
	CapManagePermissions,
	CapViewTeams, CapCreateTeams, CapEditTeams, CapDeleteTeams,
	CapViewReports, CapExportData, CapManageCompany,
}

var known = func() map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(all))
	for _, c := range all {
		m[c] = struct{}{}
	}
	return m
}()

// Capabilities returns the full capability set in a stable order.
func Capabilities() []Capability {
	out := make([]Capability, len(all))
	copy(out, all)
	return out
}

// Valid reports whether c is part of the enumerated capability set.
func (c Capability) Valid() bool {
	_, ok := known[c]
	return ok
}

// FlagSet holds an employee's stored capability flags. Absent keys read as
// false. The set is mutated only by the permission-assignment operation in
// the directory, never by the chat layer.
type FlagSet map[Capability]bool

// Clone returns an independent copy of the flag set.
func (f FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge overlays other onto f, returning a new set. Keys present in other
// win; keys only in f are retained.
func (f FlagSet) Merge(other FlagSet) FlagSet {
	out := f.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Actor is the (role, flags) tuple the evaluator answers questions about.
type Actor struct {
	Role  Role
	Flags FlagSet
}
