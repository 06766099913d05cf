package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"catalance/internal/entity"
	"catalance/internal/repository"
	"catalance/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const dummyPassword = "catalance-timing-equaliser"

type AuthService struct {
	users        repository.UserRepository
	securityLogs repository.SecurityLogRepository

	emailSender  EmailSender
	passwords    *PasswordPolicy
	accessTokens AccessTokenIssuer
	clock        Clock
	logger       logrus.FieldLogger
	config       AuthConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	securityLogs repository.SecurityLogRepository,
	emailSender EmailSender,
	passwords *PasswordPolicy,
	accessTokens AccessTokenIssuer,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AuthService {
	if emailSender == nil {
		emailSender = NoopEmailSender{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		users:        users,
		securityLogs: securityLogs,
		emailSender:  emailSender,
		passwords:    passwords,
		accessTokens: accessTokens,
		clock:        clock,
		logger:       logger,
		config:       config,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.issueAccessToken(*user)
}

func (s *AuthService) CreateUser(ctx context.Context, input RegisterInput) (*entity.User, error) {
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	safe := sanitizeUser(*user)
	return &safe, nil
}

// Authenticate looks the email up exactly as given; callers normalize it.
func (s *AuthService) Authenticate(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.passwords.Match(s.timingHash(), input.Password)
		_ = s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": input.Email})
		return nil, ErrInvalidCredentials
	}

	switch s.passwords.Match(user.PasswordHash, input.Password) {
	case SchemeStrong:
	case SchemeLegacy:
		s.upgradeLegacyHash(ctx, user, input.Password)
	default:
		_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": input.Email})
		return nil, ErrInvalidCredentials
	}

	_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, nil)
	return s.issueAccessToken(*user)
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &MessageResult{Message: ResetRequestedMessage}, nil
	}

	token, digest, err := utils.NewResetToken()
	if err != nil {
		return nil, err
	}
	ttl := s.resetTokenTTL()
	if err := s.users.SetResetToken(ctx, user.ID, digest, s.now().Add(ttl)); err != nil {
		return nil, err
	}
	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordResetRequested, nil)

	if !s.emailSender.Available() {
		s.logger.WithField("user_id", user.ID).Warn("email transport not configured, password reset email not sent")
		return &MessageResult{Message: ResetRequestedMessage}, nil
	}

	message, err := renderResetEmail(user.Email, resetEmailData{
		Email:    user.Email,
		ResetURL: buildResetURL(s.config.FrontendURL, token),
		ValidFor: ttl.String(),
		AppName:  s.appName(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.emailSender.Send(ctx, message); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to send password reset email")
		return nil, ErrResetEmailFailed
	}

	return &MessageResult{Message: ResetRequestedMessage}, nil
}

func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (*ResetTokenStatus, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrResetTokenRequired
	}

	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.ResetTokenActive(s.now()) {
		return &ResetTokenStatus{Valid: false}, nil
	}
	return &ResetTokenStatus{Valid: true, Email: user.Email}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) (*MessageResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrResetTokenRequired
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	digest := utils.HashToken(token)
	user, err := s.users.FindByResetToken(ctx, digest)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ResetPasswordExpires == nil {
		return nil, ErrInvalidResetToken
	}
	if !user.ResetTokenActive(s.now()) {
		return nil, ErrResetTokenExpired
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	consumed, err := s.users.ConsumeResetToken(ctx, user.ID, digest, hash)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInvalidResetToken
	}

	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordReset, map[string]any{"source": "password_reset"})
	return &MessageResult{Message: PasswordResetMessage}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if s.passwords.Match(user.PasswordHash, currentPassword) == SchemeNone {
		return ErrInvalidCredentials
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordChanged, nil)
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	safe := sanitizeUser(*user)
	return &safe, nil
}

func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]entity.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = sanitizeUser(users[i])
	}
	return users, nil
}

// PurgeExpiredResetTokens clears reset fields whose expiry has passed. It does
// not change validation results; expired tokens are already rejected on read.
func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.users.ClearExpiredResetTokens(ctx, s.now())
}

// RunResetTokenSweep calls PurgeExpiredResetTokens every interval until ctx is done.
func (s *AuthService) RunResetTokenSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared, err := s.PurgeExpiredResetTokens(ctx)
			if err != nil {
				s.logger.WithError(err).Warn("reset token sweep failed")
				continue
			}
			if cleared > 0 {
				s.logger.WithField("cleared", cleared).Info("expired reset tokens cleared")
			}
		}
	}
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	role := input.Role
	if role == "" {
		role = entity.UserRoleFreelancer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	skills := input.Skills
	if skills == nil {
		skills = []string{}
	}

	user := &entity.User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         role,
		Bio:          input.Bio,
		Skills:       datatypes.JSONSlice[string](skills),
		HourlyRate:   input.HourlyRate,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.sendWelcomeEmail(ctx, *user)
	return user, nil
}

// upgradeLegacyHash rewrites a legacy hash with the strong scheme. The login
// already succeeded, so failures are only logged.
func (s *AuthService) upgradeLegacyHash(ctx context.Context, user *entity.User, password string) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("unable to rehash legacy password")
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("unable to store rehashed password")
		return
	}
	user.PasswordHash = hash
	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordRehashed, map[string]any{"from": SchemeLegacy.String()})
}

func (s *AuthService) sendWelcomeEmail(ctx context.Context, user entity.User) {
	if !s.emailSender.Available() {
		return
	}
	message, err := renderWelcomeEmail(user.Email, welcomeEmailData{
		FullName: user.FullName,
		Role:     strings.ToLower(string(user.Role)),
	})
	if err == nil {
		err = s.emailSender.Send(ctx, message)
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("unable to send welcome email")
	}
}

func (s *AuthService) issueAccessToken(user entity.User) (*AuthResult, error) {
	token, ttl, err := s.accessTokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        sanitizeUser(user),
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

// timingHash is verified for unknown emails so both paths cost one strong hash check.
func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(dummyPassword)
		if err != nil {
			s.logger.WithError(err).Warn("unable to prepare timing hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if s.securityLogs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := s.securityLogs.Log(ctx, log); err != nil {
		s.logger.WithError(err).WithField("action", action).Debug("security log write failed")
		return err
	}
	return nil
}

func (s *AuthService) now() time.Time {
	return s.clock.Now()
}

func (s *AuthService) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return time.Hour
}

func (s *AuthService) appName() string {
	if strings.TrimSpace(s.config.AppName) == "" {
		return "Catalance"
	}
	return s.config.AppName
}

func sanitizeUser(user entity.User) entity.User {
	user.PasswordHash = ""
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	return user
}
