package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aawaaz/civic-portal/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Defaults for the government OTP flow
const (
	DefaultGovDomain = "@gov.in"
	DefaultOTPTTL    = 5 * time.Minute
	otpDigits        = 6
)

// OTPSender delivers a plaintext code to its owner
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}

// OTPConfig configures the government login flow
type OTPConfig struct {
	Domain string
	TTL    time.Duration
}

// GovernmentService runs the email OTP login for officials
type GovernmentService struct {
	otps      repository.OTPRepository
	officials repository.OfficialRepository
	tokens    *TokenIssuer
	sender    OTPSender
	domain    string
	ttl       time.Duration
	hashCost  int
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewGovernmentService creates the OTP flow
func NewGovernmentService(store *repository.Store, tokens *TokenIssuer, sender OTPSender, cfg OTPConfig, logger *zap.SugaredLogger) *GovernmentService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultOTPTTL
	}
	return &GovernmentService{
		otps:      store.OTPs,
		officials: store.Officials,
		tokens:    tokens,
		sender:    sender,
		domain:    normalizeDomain(cfg.Domain),
		ttl:       cfg.TTL,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
		logger:    logger,
	}
}

// normalizeDomain turns "gov.in" into "@gov.in" so that a suffix match
// cannot be satisfied by a look-alike domain such as "notgov.in"
func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return DefaultGovDomain
	}
	if !strings.HasPrefix(domain, "@") && !strings.HasPrefix(domain, ".") {
		domain = "@" + domain
	}
	return domain
}

// RequestOTP issues a new six-digit code for a government address.
// Earlier codes for the same address stay valid until they expire, but
// only the newest one is checked on verification.
func (s *GovernmentService) RequestOTP(ctx context.Context, email string) error {
	email, err := s.checkEmail(email)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return internalErr(s.logger, "Failed to generate OTP", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return internalErr(s.logger, "Failed to generate OTP", err)
	}

	now := s.now()
	challenge := &models.OTPChallenge{
		Email:     email,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.otps.Create(ctx, challenge); err != nil {
		return internalErr(s.logger, "Failed to store OTP", err, "email", email)
	}

	if err := s.sender.SendOTP(ctx, email, code, s.ttl); err != nil {
		return internalErr(s.logger, "Failed to send OTP", err, "email", email)
	}

	s.logger.Infow("OTP issued", "email", email, "expires_at", challenge.ExpiresAt)
	return nil
}

// VerifyOTP checks code against the newest challenge for email. On success
// every challenge for the address is purged and a government token issued.
func (s *GovernmentService) VerifyOTP(ctx context.Context, email, code string) (string, *models.Official, error) {
	email, err := s.checkEmail(email)
	if err != nil {
		return "", nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil, invalid("OTP is required")
	}

	challenge, err := s.otps.Latest(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, invalid("No OTP found for this email. Please request a new one")
		}
		return "", nil, internalErr(s.logger, "Failed to verify OTP", err, "email", email)
	}
	if challenge.Expired(s.now()) {
		return "", nil, &Error{Code: CodeExpired, Message: "OTP has expired. Please request a new one"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)); err != nil {
		return "", nil, invalid("Invalid OTP")
	}

	consumed, err := s.otps.Consume(ctx, email, challenge.ID)
	if err != nil {
		return "", nil, internalErr(s.logger, "Failed to verify OTP", err, "email", email)
	}
	if !consumed {
		return "", nil, invalid("OTP has already been used. Please request a new one")
	}
	// Older challenges for this email are dead once one code is accepted
	if err := s.otps.DeleteByEmail(ctx, email); err != nil {
		s.logger.Warnw("Failed to clear remaining OTPs", "email", email, "error", err)
	}

	official, err := s.officials.FindOrCreate(ctx, email)
	if err != nil {
		return "", nil, internalErr(s.logger, "Failed to load official", err, "email", email)
	}

	token, err := s.tokens.IssueGovernment(official)
	if err != nil {
		return "", nil, internalErr(s.logger, "Failed to issue token", err, "official_id", official.ID)
	}

	s.logger.Infow("Official logged in", "official_id", official.ID, "email", email)
	return token, official, nil
}

func (s *GovernmentService) checkEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("Invalid email address")
	}
	if !strings.HasSuffix(email, s.domain) {
		return "", forbidden(fmt.Sprintf("Only %s email addresses can request government access", s.domain))
	}
	return email, nil
}

func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
