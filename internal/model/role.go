package model

// Role is the closed set of principal kinds the API knows about.  A role is
// assigned once at account creation and only an administrator action can
// change it.  Authorization is exact membership: no role inherits another's
// routes, an administrator is not implicitly a branch manager.
type Role string

const (
    RoleAdministrator Role = "administrator"  // full back-office access, manages branches and employee accounts
    RoleBranchManager Role = "branch-manager" // runs one branch: stalls, applications, auctions
    RoleBusinessOwner Role = "business-owner" // branch-level reporting account
    RoleInspector     Role = "inspector"      // files stall inspection reports
    RoleCollector     Role = "collector"      // records rent payments in the field
    RoleStallholder   Role = "stallholder"    // holds an active lease on a stall
    RoleApplicant     Role = "applicant"      // registered, applying for a stall
)

// roles maps every known tag to itself for constant-time validation.
var roles = map[Role]bool{
    RoleAdministrator: true,
    RoleBranchManager: true,
    RoleBusinessOwner: true,
    RoleInspector:     true,
    RoleCollector:     true,
    RoleStallholder:   true,
    RoleApplicant:     true,
}

// Valid reports whether r is one of the known role tags.  Unknown roles are
// rejected everywhere: lookups, token claims and route guards all fail closed.
func (r Role) Valid() bool { return roles[r] }

// String returns the wire form of the role tag.
func (r Role) String() string { return string(r) }

// ParseRole validates a client-supplied role string.  It returns the typed
// role and false when the tag is not part of the closed set.  No
// normalization beyond what the login DTO already does; tags are stored and
// compared in their canonical lowercase form.
func ParseRole(s string) (Role, bool) {
    r := Role(s)
    return r, roles[r]
}
