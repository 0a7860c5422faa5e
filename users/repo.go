package users

import "time"

// UserRepo stores users. Implementations return copies, so a caller must
// Upsert to persist a change.
type UserRepo interface {
	Upsert(user *User) error
	Delete(email string) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(offset, limit int) ([]*User, int, error)
	Count() (int, error)
	SetBlocked(email string, blocked bool) error
	SetLastLogin(id string, at time.Time) error
}
