package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength for citizen accounts
const MinPasswordLength = 8

// Session is a signed-in citizen
type Session struct {
	Token string
	User  *models.User
}

// AuthService manages citizen accounts and their tokens
type AuthService struct {
	users    repository.UserRepository
	tokens   *TokenIssuer
	google   GoogleProvider
	hashCost int
	logger   *zap.SugaredLogger
}

// NewAuthService creates the citizen auth service. google may be nil when
// federated login is not configured.
func NewAuthService(store *repository.Store, tokens *TokenIssuer, google GoogleProvider, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{
		users:    store.Users,
		tokens:   tokens,
		google:   google,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// Signup registers a password account
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, invalid("Name, email and password are required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("Password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, internalErr(s.logger, "Failed to create account", err)
	}
	hash := string(hashed)

	user := &models.User{Name: name, Email: email, PasswordHash: &hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("An account with this email already exists")
		}
		return nil, internalErr(s.logger, "Failed to create account", err, "email", email)
	}

	s.logger.Infow("User signed up", "user_id", user.ID)
	return s.session(user)
}

// Login checks a password against the stored hash
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("Invalid email or password")
		}
		return nil, internalErr(s.logger, "Failed to log in", err)
	}
	if !user.HasPassword() {
		return nil, unauthorized("This account uses Google sign-in. Please log in with Google")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, unauthorized("Invalid email or password")
	}

	s.logger.Infow("User logged in", "user_id", user.ID, "method", "password")
	return s.session(user)
}

// GoogleLogin signs in with a Google authorization code. The account is
// matched by Google id, then linked by email, then created.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*Session, error) {
	if s.google == nil {
		return nil, &Error{Code: CodeInternal, Message: "Google login is not configured"}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("Authorization code is required")
	}

	profile, err := s.google.Profile(ctx, code)
	if err != nil {
		s.logger.Warnw("Google login failed", "error", err)
		return nil, unauthorized("Google authentication failed")
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.ID == "" || email == "" || !profile.VerifiedEmail {
		return nil, unauthorized("Google account has no verified email")
	}

	user, err := s.users.ByGoogleID(ctx, profile.ID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.linkOrCreate(ctx, profile, email)
		if err != nil {
			return nil, err
		}
	default:
		return nil, internalErr(s.logger, "Failed to log in", err)
	}

	s.logger.Infow("User logged in", "user_id", user.ID, "method", "google")
	return s.session(user)
}

func (s *AuthService) linkOrCreate(ctx context.Context, profile *GoogleProfile, email string) (*models.User, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err == nil {
		if err := s.users.LinkGoogle(ctx, user.ID, profile.ID); err != nil {
			return nil, internalErr(s.logger, "Failed to link Google account", err, "user_id", user.ID)
		}
		user.GoogleID = &profile.ID
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalErr(s.logger, "Failed to log in", err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	googleID := profile.ID
	user = &models.User{Name: name, Email: email, GoogleID: &googleID}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("An account with this email already exists")
		}
		return nil, internalErr(s.logger, "Failed to create account", err)
	}
	s.logger.Infow("User signed up", "user_id", user.ID, "method", "google")
	return user, nil
}

// Profile returns the caller's account
func (s *AuthService) Profile(ctx context.Context, caller *models.CitizenIdentity) (*models.User, error) {
	if caller == nil {
		return nil, unauthorized("Please log in")
	}
	user, err := s.users.ByID(ctx, caller.ID)
	if err != nil {
		if lerr := lookupErr(err, "user"); lerr != nil {
			return nil, lerr
		}
		return nil, internalErr(s.logger, "Failed to load profile", err, "user_id", caller.ID)
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.IssueCitizen(user)
	if err != nil {
		return nil, internalErr(s.logger, "Failed to issue token", err, "user_id", user.ID)
	}
	return &Session{Token: token, User: user}, nil
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return invalid("Email address is too long")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("Invalid email address")
	}
	return nil
}
