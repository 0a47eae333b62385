package rbac

// Role names carried in access tokens. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleMember     = "member"
	RoleSuperAdmin = "super_admin"

	// RolePlatformSupport is staff access for troubleshooting a tenant's hotlines.
	// It is hidden: only routes that list it explicitly admit it.
	RolePlatformSupport = "platform_support"
)

// OrgRoles are the roles an organization member can hold.
var OrgRoles = []string{RoleOwner, RoleAdmin, RoleMember}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RolePlatformSupport }
