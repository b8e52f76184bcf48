package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/session"
)

const (
	minPasswordLength = 6

	LoginModeUser  = "user"
	LoginModeAdmin = "admin"

	msgInvalidCredentials = "invalid email or password"
	msgAdminMustUseAdmin  = "This account has administrator privileges. Please log in as an administrator."
	msgUserMustUseUser    = "This account does not have administrator privileges. Please log in as a regular user."
)

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Session   *session.State
}

type AuthService interface {
	SignUp(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	SignIn(ctx context.Context, req models.LoginRequest) (*LoginResult, error)
	SignOut(ctx context.Context, sessionID string) error
	GetUserByID(id uuid.UUID) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdatePassword(ctx context.Context, state *session.State, req models.PasswordUpdateRequest) error
	Invite(req models.InviteRequest) (*models.User, error)
	DeleteUser(id uuid.UUID) error
	EnsureAdmin(email, displayName, passwordHash string) (*models.User, bool, error)
	CreateAdmin(email, displayName, password string) (*models.User, error)
}

type authService struct {
	users      repositories.UserRepository
	sessions   session.Store
	tokens     *TokenManager
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthService(users repositories.UserRepository, sessions session.Store, tokens *TokenManager, bcryptCost int, logger *slog.Logger) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

func authError(reason apperror.Reason, op, message string) error {
	return apperror.WithReason(apperror.KindAuth, reason, op, message, nil)
}

var fieldValidator = validator.New()

func validateCredentials(op, email, password string) error {
	if err := fieldValidator.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return apperror.Wrap(apperror.KindValidation, op, "a valid email address is required", err)
	}
	if len(password) < minPasswordLength {
		return authError(apperror.ReasonWeakPassword, op, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *authService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) createUser(op, email, displayName, password string, isAdmin, mustChange bool) (*models.User, error) {
	if err := validateCredentials(op, email, password); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperror.New(apperror.KindValidation, op, "display name is required")
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, authError(apperror.ReasonAlreadyRegistered, op, "an account with this email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not check the account", err)
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not create the account", err)
	}

	user := &models.User{
		Email:              email,
		DisplayName:        displayName,
		PasswordHash:       hashed,
		IsAdmin:            isAdmin,
		MustChangePassword: mustChange,
	}
	if err := s.users.Create(user); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not create the account", err)
	}
	return user, nil
}

func (s *authService) SignUp(_ context.Context, req models.RegisterRequest) (*models.User, error) {
	user, err := s.createUser("auth.SignUp", req.Email, req.DisplayName, req.Password, false, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// SignIn checks credentials first and the login mode second, so the role
// mismatch message is only ever shown to someone who knows the password.
func (s *authService) SignIn(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	const op = "auth.SignIn"

	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, authError(apperror.ReasonInvalidCredentials, op, msgInvalidCredentials)
		}
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not sign in", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("failed login", slog.String("user_id", user.ID.String()))
		return nil, authError(apperror.ReasonInvalidCredentials, op, msgInvalidCredentials)
	}

	mode := req.Mode
	if mode == "" {
		mode = LoginModeUser
	}
	switch {
	case mode == LoginModeUser && user.IsAdmin:
		return nil, authError(apperror.ReasonAdminLoginRequired, op, msgAdminMustUseAdmin)
	case mode == LoginModeAdmin && !user.IsAdmin:
		return nil, authError(apperror.ReasonUserLoginRequired, op, msgUserMustUseUser)
	}

	state := session.NewLogin(user, s.now())
	token, expiresAt, err := s.tokens.Issue(state)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not sign in", err)
	}
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not start the session", err)
	}

	s.logger.Info("signed in",
		slog.String("user_id", user.ID.String()),
		slog.String("mode", mode),
		slog.Bool("must_change_password", user.MustChangePassword),
	)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user, Session: state}, nil
}

func (s *authService) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperror.Wrap(apperror.KindInternal, "auth.SignOut", "could not end the session", err)
	}
	return nil
}

func (s *authService) GetUserByID(id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, lookupError("auth.GetUserByID", err)
	}
	return user, nil
}

func (s *authService) GetUserByEmail(email string) (*models.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, lookupError("auth.GetUserByEmail", err)
	}
	return user, nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.Wrap(apperror.KindNotFound, op, "user not found", err)
	}
	return apperror.Wrap(apperror.KindInternal, op, "could not load the user", err)
}

// UpdatePassword clears a pending forced change and ends the session; the
// caller signs in again with the new password.
func (s *authService) UpdatePassword(ctx context.Context, state *session.State, req models.PasswordUpdateRequest) error {
	const op = "auth.UpdatePassword"

	if req.NewPassword != req.ConfirmPassword {
		return authError(apperror.ReasonPasswordMismatch, op, "the new passwords do not match")
	}
	if len(req.NewPassword) < minPasswordLength {
		return authError(apperror.ReasonWeakPassword, op, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.users.FindByID(state.UserID)
	if err != nil {
		return lookupError(op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return authError(apperror.ReasonInvalidCredentials, op, "the current password is incorrect")
	}

	hashed, err := s.hash(req.NewPassword)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, op, "could not update the password", err)
	}
	if err := s.users.UpdatePassword(user.ID, hashed, false); err != nil {
		return lookupError(op, err)
	}

	if err := s.sessions.Delete(ctx, state.ID); err != nil {
		s.logger.Warn("session not ended after password update", slog.Any("error", err))
	}
	s.logger.Info("password updated", slog.String("user_id", user.ID.String()))
	return nil
}

// Invite creates an account with a temporary password that must be changed
// at first login. Granting admin needs an explicit confirmation.
func (s *authService) Invite(req models.InviteRequest) (*models.User, error) {
	const op = "auth.Invite"

	if req.IsAdmin && !req.ConfirmAdmin {
		return nil, apperror.New(apperror.KindValidation, op, "please confirm granting administrator privileges")
	}

	user, err := s.createUser(op, req.Email, req.DisplayName, req.TemporaryPassword, req.IsAdmin, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("member invited", slog.String("user_id", user.ID.String()), slog.Bool("is_admin", user.IsAdmin))
	return user, nil
}

func (s *authService) DeleteUser(id uuid.UUID) error {
	if err := s.users.Delete(id); err != nil {
		return lookupError("auth.DeleteUser", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator from a precomputed hash
// unless the email is already registered.
func (s *authService) EnsureAdmin(email, displayName, passwordHash string) (*models.User, bool, error) {
	const op = "auth.EnsureAdmin"

	existing, err := s.users.FindByEmail(email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, apperror.Wrap(apperror.KindInternal, op, "could not check the account", err)
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, false, apperror.Wrap(apperror.KindValidation, op, "ADMIN_PASSWORD_HASH is not a bcrypt hash", err)
	}
	if displayName == "" {
		displayName = "Administrator"
	}

	user := &models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		IsAdmin:      true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, false, apperror.Wrap(apperror.KindInternal, op, "could not create the administrator", err)
	}
	return user, true, nil
}

// CreateAdmin registers a new administrator or promotes an existing account.
func (s *authService) CreateAdmin(email, displayName, password string) (*models.User, error) {
	const op = "auth.CreateAdmin"

	existing, err := s.users.FindByEmail(email)
	if err == nil {
		if err := s.users.SetAdmin(existing.ID, true); err != nil {
			return nil, lookupError(op, err)
		}
		existing.IsAdmin = true
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not check the account", err)
	}

	return s.createUser(op, email, displayName, password, true, false)
}
