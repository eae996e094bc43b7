package domain

// Role is a closed enumeration of user roles.
type Role string

const (
	RoleUser           Role = "user"
	RolePastor         Role = "pastor"
	RoleRegionalBishop Role = "regional-bishop"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super-admin"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RolePastor, RoleRegionalBishop, RoleAdmin, RoleSuperAdmin}
}

// IsValid checks whether the role is a member of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RolePastor, RoleRegionalBishop, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Provider is a closed enumeration of identity providers.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// IsValid checks whether the provider is a member of the closed set.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle:
		return true
	}
	return false
}

func (p Provider) String() string { return string(p) }
