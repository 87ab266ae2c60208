package domain

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleClerk   = "clerk"
)

type User struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	Password  string `json:"password,omitempty" db:"password"`
	Role      string `json:"role" db:"role"`
	Email     string `json:"email" db:"email"`
	IsActive  bool   `json:"is_active" db:"is_active"`
	CreatedAt string `json:"created_at,omitempty" db:"created_at"`
}
