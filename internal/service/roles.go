package service

import "userAuthService/models"

// roleLabels maps the informal labels accepted at sign-up to catalog names.
// Labels are case-sensitive; anything not listed resolves to ROLE_USER.
var roleLabels = map[string]models.RoleName{
	"admin": models.RoleAdmin,
	"mod":   models.RoleModerator,
}

const defaultRole = models.RoleUser

// ResolveRoleNames applies the sign-up role policy: no labels means
// {ROLE_USER}; otherwise every label maps through roleLabels with ROLE_USER
// as the default, and duplicates collapse. Order follows first appearance.
func ResolveRoleNames(labels []string) []models.RoleName {
	if len(labels) == 0 {
		return []models.RoleName{defaultRole}
	}
	seen := make(map[models.RoleName]struct{}, len(labels))
	out := make([]models.RoleName, 0, len(labels))
	for _, label := range labels {
		name, ok := roleLabels[label]
		if !ok {
			name = defaultRole
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
