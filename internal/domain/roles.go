package domain

// roleLabels maps role identifiers from the remote authority to
// operator-facing names. The authority emits both symbolic roles and legacy
// numeric codes for accounts created before the role rename.
var roleLabels = map[string]string{
	"super_admin": "Super Admin",
	"admin":       "Administrator",
	"finance":     "Finance",
	"supplier":    "Supplier",
	"1":           "Super Admin",
	"2":           "Administrator",
	"3":           "Finance",
}

// ResolveRoleLabel maps a remote role value to a display name. Unrecognized
// values pass through untouched so newly introduced roles still render;
// only an empty role becomes "Unknown".
func ResolveRoleLabel(role string) string {
	if role == "" {
		return "Unknown"
	}
	if label, ok := roleLabels[role]; ok {
		return label
	}
	return role
}
