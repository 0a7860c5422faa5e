package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/records"
	"github.com/jrsteele09/care-portal/users"
)

const (
	seedPatientUser = "patient"
	passwordBytes   = 12
)

// InitialiseSystem seeds an empty user store with an admin and, when
// configured, a demo patient linked to a patient record. Generated passwords
// are logged once, on the run that creates the accounts.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	count, err := s.repos.Users.Count()
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to count users: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Int("users", count).Msg("user store already initialised")
		return nil
	}

	adminEmail := users.NormaliseEmail(s.config.GetAdminEmail())
	adminPassword, err := s.createUser(ctx, &users.User{
		Email:     adminEmail,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      apimodel.RoleAdmin,
	}, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	event := s.logger.Info().
		Str("base_url", s.config.GetBaseURL()).
		Str("admin_email", adminEmail)
	if s.config.GetAdminPassword() == "" {
		event = event.Str("admin_password", adminPassword)
	}

	if s.config.GetSeedPatient() {
		patientEmail, patientPassword, err := s.createSeedPatient(ctx)
		if err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap patient: %w", err)
		}
		event = event.Str("patient_email", patientEmail).Str("patient_password", patientPassword)
	}
	event.Msg("system initialised")
	return nil
}

// createSeedPatient creates a patient file and the patient user that owns it.
func (s *Server) createSeedPatient(ctx context.Context) (email, password string, err error) {
	file, err := s.repos.Records.Create(records.KindPatients, map[string]any{
		"firstName": "Demo",
		"lastName":  "Patient",
	}, "")
	if err != nil {
		return "", "", fmt.Errorf("[server createSeedPatient] failed to create patient file: %w", err)
	}

	patientID := file.ID
	email = generateEmailFromBaseURL(seedPatientUser, s.config.GetBaseURL())
	password, err = s.createUser(ctx, &users.User{
		Email:     email,
		FirstName: "Demo",
		LastName:  "Patient",
		Role:      apimodel.RolePatient,
		PatientID: &patientID,
	}, "")
	return email, password, err
}

// createUser stores user with password, generating one when it is empty.
func (s *Server) createUser(_ context.Context, user *users.User, password string) (string, error) {
	if password == "" {
		generated, err := generatePassword()
		if err != nil {
			return "", err
		}
		password = generated
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[server createUser] failed to hash password: %w", err)
	}
	user.ID = uuid.New().String()
	user.PasswordHash = passwordHash
	user.DateJoined = time.Now()

	if err := s.repos.Users.Upsert(user); err != nil {
		return "", fmt.Errorf("[server createUser] failed to store %s: %w", user.Email, err)
	}
	return password, nil
}

// generatePassword generates a secure random password
func generatePassword() (string, error) {
	b := make([]byte, passwordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[server generatePassword] failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateEmailFromBaseURL creates an email address from a username and base URL
// Example: ("patient", "https://care.example.com/path") -> "patient@care.example.com"
func generateEmailFromBaseURL(user, baseURL string) string {
	domain := strings.ReplaceAll(strings.ReplaceAll(baseURL, "https://", ""), "http://", "")
	domain = strings.SplitN(domain, "/", 2)[0] // Remove any path
	domain = strings.SplitN(domain, ":", 2)[0] // Remove port if present
	if !strings.Contains(domain, ".") {
		domain += ".local"
	}
	return fmt.Sprintf("%s@%s", user, domain)
}
