package models

// RoleGrant records a role membership on the ledger. Grants are
// set-membership entries: registering the same identity twice is a no-op.
type RoleGrant struct {
	Identity   string `json:"identity"`
	Role       string `json:"role"`
	GrantedBy  string `json:"grantedBy"`
	GrantedAt  int64  `json:"grantedAt"`
	ObjectType string `json:"objectType"`
}

// NewRoleGrant creates a new role grant entry
func NewRoleGrant(identity, role, grantedBy string, grantedAt int64) *RoleGrant {
	return &RoleGrant{
		Identity:   identity,
		Role:       role,
		GrantedBy:  grantedBy,
		GrantedAt:  grantedAt,
		ObjectType: "roleGrant",
	}
}
