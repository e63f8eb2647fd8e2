package models

// RoleName is one of the seeded authorities in the `roles` table.
type RoleName string

const (
	RoleUser      RoleName = "ROLE_USER"
	RoleModerator RoleName = "ROLE_MODERATOR"
	RoleAdmin     RoleName = "ROLE_ADMIN"
)

// AllRoleNames lists the closed set of role names the catalog must contain.
func AllRoleNames() []RoleName {
	return []RoleName{RoleUser, RoleModerator, RoleAdmin}
}

// IsValid reports whether n is part of the closed role set.
func (n RoleName) IsValid() bool {
	switch n {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// Role represents a catalog entry. Rows are seeded by migration and never
// created at runtime.
type Role struct {
	ID   int64    `db:"id" json:"id"`
	Name RoleName `db:"name" json:"name"`
}
