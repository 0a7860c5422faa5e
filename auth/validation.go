package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/users"
)

const (
	minRefreshTokenLength = 16
	maxNameLength         = 100
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator provides centralized validation logic for the session endpoints.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateEmail checks presence and basic shape of an email address
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateRefreshToken validates refresh token presence and format
func (v *Validator) ValidateRefreshToken(token string) error {
	if token == "" {
		return fmt.Errorf("refresh token is required")
	}
	if len(token) < minRefreshTokenLength {
		return fmt.Errorf("invalid refresh token format")
	}
	return nil
}

// ValidateAccessToken validates access token format and presence
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format: must be a valid JWT")
	}
	for i, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("invalid token format: part %d is empty", i+1)
		}
	}
	return nil
}

// ValidateUserState validates user account state
func (v *Validator) ValidateUserState(user *users.User) error {
	if user == nil {
		return fmt.Errorf("user not found")
	}
	if user.Blocked {
		return fmt.Errorf("user account is blocked")
	}
	return nil
}

// ValidateProfileUpdate checks a self-service profile edit. Role and patient
// link may be echoed back unchanged but never altered by the user.
func (v *Validator) ValidateProfileUpdate(user *users.User, update apimodel.IdentityUpdate) error {
	if update.IsEmpty() {
		return fmt.Errorf("update has no fields")
	}
	if update.Role != nil && *update.Role != user.Role {
		return fmt.Errorf("role cannot be changed")
	}
	if update.PatientID != nil && (user.PatientID == nil || *update.PatientID != *user.PatientID) {
		return fmt.Errorf("patient link cannot be changed")
	}
	if update.Email != nil {
		if err := v.ValidateEmail(*update.Email); err != nil {
			return err
		}
	}
	for name, value := range map[string]*string{"firstName": update.FirstName, "lastName": update.LastName} {
		if value == nil {
			continue
		}
		if strings.TrimSpace(*value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		if len(*value) > maxNameLength {
			return fmt.Errorf("%s is longer than %d characters", name, maxNameLength)
		}
	}
	return nil
}

// ValidateNewUser checks an account about to be created
func (v *Validator) ValidateNewUser(input NewUser) error {
	if err := v.ValidateEmail(input.Email); err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(input.Password); err != nil {
		return err
	}
	if !input.Role.Valid() {
		return fmt.Errorf("role must be %s or %s", apimodel.RoleAdmin, apimodel.RolePatient)
	}
	if input.Role == apimodel.RolePatient && (input.PatientID == nil || *input.PatientID == "") {
		return fmt.Errorf("patient users need a patient id")
	}
	if input.Role == apimodel.RoleAdmin && input.PatientID != nil {
		return fmt.Errorf("admin users cannot be linked to a patient")
	}
	return nil
}
