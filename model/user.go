package model

// Role is an account-level role.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

// User is the subset of an account the chat core reads. Accounts are owned
// by the identity service; the chat core never writes them.
type User struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Role  Role   `json:"role" db:"role"`
}

// TableName returns the database table name for User.
func (u User) TableName() string {
	return "users"
}

// IsBuyer reports whether the account may open chat rooms.
func (u *User) IsBuyer() bool {
	return u.Role == RoleBuyer
}
