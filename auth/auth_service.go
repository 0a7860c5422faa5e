package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/care-portal/apimodel"
	apperrors "github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/token"
	"github.com/jrsteele09/care-portal/token/refresh"
	"github.com/jrsteele09/care-portal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Session is the result of a successful login or refresh: a new access token,
// the refresh token that replaces whatever the user held before, and the user.
type Session struct {
	AccessToken  string
	ExpiresIn    time.Duration
	RefreshToken *refresh.StoredRefreshToken
	User         *users.User
}

// Response is the body returned to clients. The refresh token is left out, it
// is delivered as a cookie.
func (s *Session) Response() apimodel.SessionResponse {
	identity := s.User.ToIdentity()
	return apimodel.SessionResponse{
		AccessToken: s.AccessToken,
		ExpiresIn:   int(s.ExpiresIn.Seconds()),
		User:        &identity,
	}
}

// NewUser describes an account to create.
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      apimodel.Role
	PatientID *string
}

// Service implements the session lifecycle on the server: login, refresh token
// rotation, logout and the signed-in user's profile.
type Service struct {
	users         users.UserRepo   // Repository for user data
	tokens        *token.Manager   // Issues and verifies access tokens
	refreshTokens *refresh.Manager // Issues and rotates refresh tokens
	validator     *Validator
	nowTime       func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(
	userRepo users.UserRepo,
	tokens *token.Manager,
	refreshTokens *refresh.Manager,
	options ...ServiceOption,
) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewService] refresh token manager is required")
	}

	s := &Service{
		users:         userRepo,
		tokens:        tokens,
		refreshTokens: refreshTokens,
		validator:     NewValidator(),
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Tokens exposes the access token manager to the HTTP layer.
func (s *Service) Tokens() *token.Manager {
	return s.tokens
}

// Login checks email and password and opens a new session. Unknown emails and
// wrong passwords both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := s.validator.ValidateUserCredentials(email, password); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}

	user, err := s.users.GetByEmail(users.NormaliseEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return nil, apperrors.ErrInvalidCredentials
	case err != nil:
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.validator.ValidateUserState(user); err != nil {
		return nil, errors.Wrap(apperrors.ErrUserBlocked, err.Error())
	}

	user.LastLogin = s.nowTime()
	if err := s.users.SetLastLogin(user.ID, user.LastLogin); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] SetLastLogin")
	}

	rt, err := s.refreshTokens.Create(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] refresh token")
	}
	return s.newSession(user, rt)
}

// Refresh consumes a refresh token and opens a new session for its user. Each
// refresh token works once; the returned session carries its replacement.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if err := s.validator.ValidateRefreshToken(refreshToken); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRefreshToken, err.Error())
	}

	rt, err := s.refreshTokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(rt.UserID)
	if err != nil {
		s.revokeQuietly(ctx, rt.UserID, "user no longer exists")
		return nil, errors.Wrap(apperrors.ErrInvalidRefreshToken, "user no longer exists")
	}
	if err := s.validator.ValidateUserState(user); err != nil {
		s.revokeQuietly(ctx, user.ID, err.Error())
		return nil, errors.Wrap(apperrors.ErrUserBlocked, err.Error())
	}
	return s.newSession(user, rt)
}

// revokeQuietly drops a user's refresh tokens on a path that already fails the
// request. A revoke error is logged rather than returned.
func (s *Service) revokeQuietly(ctx context.Context, userID, reason string) {
	if err := s.refreshTokens.RevokeUser(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("user_id", userID).
			Str("reason", reason).
			Msg("failed to revoke refresh tokens")
	}
}

func (s *Service) newSession(user *users.User, rt *refresh.StoredRefreshToken) (*Session, error) {
	accessToken, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service] CreateAccessToken")
	}
	return &Session{
		AccessToken:  accessToken,
		ExpiresIn:    s.tokens.AccessTokenExpiry(),
		RefreshToken: rt,
		User:         user,
	}, nil
}

// Logout deletes the refresh token and revokes the access token. Either may be
// empty; tokens that are unknown or already expired are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
		return errors.Wrap(err, "[Service.Logout] refresh token")
	}
	if s.validator.ValidateAccessToken(accessToken) != nil {
		return nil
	}
	err := s.tokens.RevokeAccessToken(ctx, accessToken)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidToken) {
		return errors.Wrap(err, "[Service.Logout] access token")
	}
	return nil
}

// Me returns the user behind a verified access token.
func (s *Service) Me(_ context.Context, userID string) (*users.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Me] GetByID")
	}
	if err := s.validator.ValidateUserState(user); err != nil {
		return nil, errors.Wrap(apperrors.ErrUserBlocked, err.Error())
	}
	return user, nil
}

// UpdateProfile applies a self-service edit to the user's own profile and
// returns the stored result.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update apimodel.IdentityUpdate) (*users.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateProfileUpdate(user, update); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}

	user.ApplyProfile(update)
	if err := s.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateProfile] Upsert")
	}
	return user, nil
}

// CreateUser registers a new account. The password must pass
// users.ValidatePasswordStrength.
func (s *Service) CreateUser(_ context.Context, input NewUser) (*users.User, error) {
	if err := s.validator.ValidateNewUser(input); err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}

	hash, err := users.HashPassword(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] HashPassword")
	}
	user := &users.User{
		ID:           uuid.New().String(),
		Email:        users.NormaliseEmail(input.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         input.Role,
		PatientID:    input.PatientID,
		DateJoined:   s.nowTime(),
	}
	if _, err := s.users.GetByEmail(user.Email); err == nil {
		return nil, apperrors.ErrUserExists
	}
	if err := s.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] Upsert")
	}
	return user, nil
}

// ListUsers pages through all users, ordered by email.
func (s *Service) ListUsers(_ context.Context, offset, limit int) ([]*users.User, int, error) {
	list, total, err := s.users.List(offset, limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[Service.ListUsers] List")
	}
	return list, total, nil
}

// SetBlocked blocks or unblocks a user. Blocking also drops the user's refresh
// token, so the next refresh fails and the client's session ends.
func (s *Service) SetBlocked(ctx context.Context, userID string, blocked bool) (*users.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.SetBlocked] GetByID")
	}
	if err := s.users.SetBlocked(user.Email, blocked); err != nil {
		return nil, errors.Wrap(err, "[Service.SetBlocked] SetBlocked")
	}
	if blocked {
		if err := s.refreshTokens.RevokeUser(ctx, user.ID); err != nil {
			return nil, errors.Wrap(err, "[Service.SetBlocked] RevokeUser")
		}
	}
	user.Blocked = blocked
	return user, nil
}

// GetJWKS returns the keys that verify access tokens.
func (s *Service) GetJWKS() (*token.JWKS, error) {
	return s.tokens.GetJWKS()
}

// CleanupRevokedTokens drops expired entries from the revocation cache.
func (s *Service) CleanupRevokedTokens() {
	s.tokens.CleanupRevokedTokens()
}
