package enums

// UserRole is the coarse access role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

var userRoles = values[UserRole]{UserRoleCustomer, UserRoleAdmin}

func (r UserRole) IsValid() bool { return userRoles.has(r) }
