package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
	"alfredoptarigan/cv-screener/internal/session"
)

const (
	localSession = "session"
	localClaims  = "claims"

	msgAccessDenied = "access denied"
)

// Route binds a handler to the capability it requires.
type Route struct {
	Method     string
	Path       string
	Capability session.Capability
	Handler    fiber.Handler
}

// UserLookup loads the account behind a session.
type UserLookup interface {
	FindByID(id uuid.UUID) (*models.User, error)
}

// Dispatcher checks a route's capability once before its handler runs.
type Dispatcher struct {
	tokens   *services.TokenManager
	sessions session.Store
	users    UserLookup
	logger   *slog.Logger
}

func NewDispatcher(tokens *services.TokenManager, sessions session.Store, users UserLookup, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{tokens: tokens, sessions: sessions, users: users, logger: logger}
}

// Register mounts every route under router.
func (d *Dispatcher) Register(router fiber.Router, routes []Route) {
	for _, r := range routes {
		router.Add(r.Method, r.Path, d.authorize(r.Capability), r.Handler)
	}
}

// authorize rejects from the token claims alone first, so a request the
// token already rules out never reaches the session store or any
// repository. Requests that pass are then checked against the stored
// session and the current account, which is where revoked roles and
// deleted users are caught.
func (d *Dispatcher) authorize(required session.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if required == session.CapabilityPublic {
			return c.Next()
		}

		claims, err := d.tokens.Parse(bearerToken(c))
		if err != nil {
			return respondError(c, err)
		}

		if !claims.Allows(required) {
			d.logger.Warn("capability denied",
				slog.String("path", c.Path()),
				slog.String("required", required.String()),
				slog.String("user_id", claims.Subject),
			)
			if claims.MustChangePassword {
				return respondError(c, apperror.WithReason(apperror.KindAuth, apperror.ReasonPasswordChange,
					"handlers.authorize", "please update your password before continuing", nil))
			}
			return banner(c, fiber.StatusForbidden, LevelError, msgAccessDenied)
		}

		st, err := d.sessions.Get(c.UserContext(), claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return respondError(c, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired,
					"handlers.authorize", "your session has ended, please log in again", err))
			}
			return respondError(c, apperror.Wrap(apperror.KindInternal, "handlers.authorize", "could not load the session", err))
		}
		if st.UserID.String() != claims.Subject {
			return banner(c, fiber.StatusForbidden, LevelError, msgAccessDenied)
		}

		user, err := d.users.FindByID(st.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				d.logger.Warn("session of a deleted user",
					slog.String("path", c.Path()),
					slog.String("user_id", claims.Subject),
				)
				return respondError(c, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired,
					"handlers.authorize", "your account no longer exists", err))
			}
			return respondError(c, apperror.Wrap(apperror.KindInternal, "handlers.authorize", "could not load the account", err))
		}

		// role and password flags follow the account, not the token
		st.IsAdmin = user.IsAdmin
		st.MustChangePassword = user.MustChangePassword
		if !st.Allows(required) {
			d.logger.Warn("capability revoked",
				slog.String("path", c.Path()),
				slog.String("required", required.String()),
				slog.String("user_id", claims.Subject),
			)
			return banner(c, fiber.StatusForbidden, LevelError, msgAccessDenied)
		}

		c.Locals(localSession, st)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func currentSession(c *fiber.Ctx) *session.State {
	st, _ := c.Locals(localSession).(*session.State)
	return st
}

// Handlers groups everything the route table points at.
type Handlers struct {
	Auth      *AuthHandler
	Session   *SessionHandler
	Screening *ScreeningHandler
	Reports   *ReportHandler
	Admin     *AdminHandler
}

// Routes is the complete API surface relative to /api/v1.
func Routes(h *Handlers) []Route {
	return []Route{
		{fiber.MethodGet, "/health", session.CapabilityPublic, health},
		{fiber.MethodPost, "/auth/register", session.CapabilityPublic, h.Auth.Register},
		{fiber.MethodPost, "/auth/login", session.CapabilityPublic, h.Auth.Login},

		{fiber.MethodPost, "/auth/password", session.CapabilityPasswordChange, h.Auth.UpdatePassword},
		{fiber.MethodPost, "/auth/logout", session.CapabilityPasswordChange, h.Auth.Logout},
		{fiber.MethodGet, "/session", session.CapabilityPasswordChange, h.Session.Get},
		{fiber.MethodPost, "/session/navigate", session.CapabilityPasswordChange, h.Session.Navigate},

		{fiber.MethodPost, "/screenings", session.CapabilityUser, h.Screening.Create},
		{fiber.MethodGet, "/screenings/current", session.CapabilityUser, h.Screening.Current},
		{fiber.MethodGet, "/screenings/current/document", session.CapabilityUser, h.Screening.CurrentDocument},
		{fiber.MethodGet, "/reports", session.CapabilityUser, h.Reports.List},
		{fiber.MethodGet, "/reports/search", session.CapabilityUser, h.Reports.Search},
		{fiber.MethodGet, "/reports/:id/document", session.CapabilityUser, h.Reports.Document},

		{fiber.MethodGet, "/admin/users", session.CapabilityAdmin, h.Admin.ListUsers},
		{fiber.MethodPost, "/admin/users", session.CapabilityAdmin, h.Admin.Invite},
		{fiber.MethodPost, "/admin/users/:id/toggle-admin", session.CapabilityAdmin, h.Admin.ToggleAdmin},
		{fiber.MethodDelete, "/admin/users/:id", session.CapabilityAdmin, h.Admin.DeleteUser},
		{fiber.MethodGet, "/admin/reports", session.CapabilityAdmin, h.Admin.ListReports},
		{fiber.MethodGet, "/admin/reports/export", session.CapabilityAdmin, h.Admin.Export},
		{fiber.MethodDelete, "/admin/reports/:id", session.CapabilityAdmin, h.Admin.DeleteReport},
	}
}
