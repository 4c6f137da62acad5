package model

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleTenant          Role = "tenant"
	RoleServiceProvider Role = "service_provider"
	RoleCustomer        Role = "customer"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTenant, RoleServiceProvider, RoleCustomer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
