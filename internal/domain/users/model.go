package users

import "time"

const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

// User is the portal account as seen by the payment flow. Accounts are
// created and authenticated elsewhere; this service only reads them.
type User struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Lastname  string
	Email     string `gorm:"not null;uniqueIndex:idx_users_email"`
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) DisplayName() string {
	if u.Lastname == "" {
		return u.Name
	}
	return u.Name + " " + u.Lastname
}
