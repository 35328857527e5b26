package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/internal/db"
	"github.com/diewo77/festakit/internal/models"
)

const (
	// ResetTTL is how long a password reset link stays valid.
	ResetTTL        = time.Hour
	resetTokenBytes = 32
)

// Mailer delivers account e-mails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes the message to the log instead of sending it.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.Log.Info().Str("email", email).Str("link", link).Msg("password reset requested")
	return nil
}

// SignupInput is the registration form.
type SignupInput struct {
	Email     string
	Password  string
	Confirm   string
	StoreName string
}

// AccountService handles registration, login and password resets.
type AccountService struct {
	db         *gorm.DB
	mailer     Mailer
	baseURL    string
	adminEmail string
	log        zerolog.Logger
	now        func() time.Time
}

func NewAccountService(db *gorm.DB, mailer Mailer, baseURL, adminEmail string, log zerolog.Logger) *AccountService {
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	return &AccountService{
		db:         db,
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminEmail: strings.TrimSpace(adminEmail),
		log:        log,
		now:        time.Now,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func passwordError(err error) error {
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		return newValidationError("As senhas não coincidem.")
	case errors.Is(err, auth.ErrPasswordTooShort):
		return newValidationError("A senha deve ter pelo menos 6 caracteres.")
	}
	return err
}

// Signup creates the account with the subscriber role and a trial
// subscription. The configured admin e-mail receives the admin role.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, newValidationError("Informe um e-mail válido.")
	}
	if err := auth.CheckNewPassword(in.Password, in.Confirm); err != nil {
		return nil, passwordError(err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, persistence("hash password", err)
	}

	roleName := models.RoleSubscriber
	if s.adminEmail != "" && strings.EqualFold(email, s.adminEmail) {
		roleName = models.RoleAdmin
	}

	now := s.now()
	trialEnd := now.Add(models.TrialPeriod)
	user := &models.User{Email: email, Password: hash}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		var role models.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err == nil {
			user.RoleID = &role.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		sub := &models.Subscription{
			UserID:         user.ID,
			Plan:           "trial",
			Status:         models.SubscriptionActive,
			TrialExpiresAt: &trialEnd,
			ExpiresAt:      &trialEnd,
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		user.Subscription = sub

		if name := strings.TrimSpace(in.StoreName); name != "" {
			profile := &models.StoreProfile{UserID: user.ID, StoreName: name}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.StoreProfile = profile
		}
		return nil
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, err
	}
	if err != nil {
		return nil, persistence("signup", err)
	}
	return user, nil
}

// Authenticate checks the credentials and returns the user.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, persistence("find user", err)
	}
	if !auth.ComparePassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Exists reports whether the user id still has an account.
func (s *AccountService) Exists(ctx context.Context, id uint) bool {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}

// RequestReset issues a reset link when the e-mail is known. Unknown
// addresses are not reported to the caller.
func (s *AccountService) RequestReset(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug().Msg("password reset requested for unknown e-mail")
		return nil
	}
	if err != nil {
		return persistence("find user", err)
	}

	token, err := auth.RandomToken(resetTokenBytes)
	if err != nil {
		return persistence("generate reset token", err)
	}
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: s.now().Add(ResetTTL),
	}
	if err := s.db.WithContext(ctx).Create(reset).Error; err != nil {
		return persistence("create password reset", err)
	}

	link := s.baseURL + "/atualizar-senha?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		s.log.Error().Err(err).Uint("user_id", user.ID).Msg("password reset delivery failed")
	}
	return nil
}

// CheckResetToken reports whether token can still be used.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.findReset(ctx, s.db, token)
	return err
}

func (s *AccountService) findReset(ctx context.Context, tx *gorm.DB, token string) (*models.PasswordReset, error) {
	if token == "" {
		return nil, ErrResetInvalid
	}
	var reset models.PasswordReset
	err := tx.WithContext(ctx).Where("token_hash = ?", auth.HashToken(token)).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResetInvalid
	}
	if err != nil {
		return nil, persistence("find password reset", err)
	}
	if !reset.Usable(s.now()) {
		return nil, ErrResetInvalid
	}
	return &reset, nil
}

// ResetPassword sets a new password and consumes the token.
func (s *AccountService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := auth.CheckNewPassword(password, confirm); err != nil {
		return passwordError(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return persistence("hash password", err)
	}

	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reset, err := s.findReset(ctx, tx, token)
		if err != nil {
			return err
		}
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if res.Error != nil {
			return persistence("consume password reset", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrResetInvalid
		}
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", hash).Error; err != nil {
			return persistence("update password", err)
		}
		return nil
	})
}

// PurgeExpiredResets removes used or expired reset tokens.
func (s *AccountService) PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&models.PasswordReset{})
	if res.Error != nil {
		return 0, persistence("purge password resets", res.Error)
	}
	return res.RowsAffected, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *AccountService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistence("find user", err)
	}
	return user.Role != nil && user.Role.Name == models.RoleAdmin, nil
}

// GrantAdmin gives the admin role to the account with email.
func (s *AccountService) GrantAdmin(ctx context.Context, email string) error {
	return db.GrantRole(s.db.WithContext(ctx), email, models.RoleAdmin)
}
