package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/care-portal/apimodel"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string        `json:"id,omitempty"`         // Unique identifier for the user
	Email        string        `json:"email,omitempty"`      // User's email address, unique and lower case
	PasswordHash string        `json:"-"`                    // Hashed version of the user's password - never serialize
	FirstName    string        `json:"firstName,omitempty"`  // First name of the user
	LastName     string        `json:"lastName,omitempty"`   // Last name of the user
	Role         apimodel.Role `json:"role,omitempty"`       // ADMIN or PATIENT
	PatientID    *string       `json:"patientId,omitempty"`  // Patient record owned by the user, PATIENT role only
	DateJoined   time.Time     `json:"dateJoined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time     `json:"lastLogin,omitempty"`  // Last time the user logged in
	Blocked      bool          `json:"blocked,omitempty"`    // Blocked, has the user been blocked from logging in
}

// NormaliseEmail is the form emails are stored and looked up in.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) IsAdmin() bool {
	return u.Role == apimodel.RoleAdmin
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PatientID != nil {
		id := *u.PatientID
		c.PatientID = &id
	}
	return &c
}

// ToIdentity is the public view of the user handed to clients.
func (u *User) ToIdentity() apimodel.Identity {
	identity := apimodel.Identity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Blocked:   u.Blocked,
	}
	if u.PatientID != nil {
		id := *u.PatientID
		identity.PatientID = &id
	}
	return identity
}

// ApplyProfile edits the profile fields a user may change about themselves.
// Role and patient link are admin controlled and are ignored here.
func (u *User) ApplyProfile(update apimodel.IdentityUpdate) {
	if update.Email != nil {
		u.Email = NormaliseEmail(*update.Email)
	}
	if update.FirstName != nil {
		u.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		u.LastName = strings.TrimSpace(*update.LastName)
	}
}
