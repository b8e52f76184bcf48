package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

type AdminService interface {
	ListUsers() ([]models.User, error)
	ToggleAdmin(actorID, targetID uuid.UUID) (*models.User, error)
	InviteMember(req models.InviteRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
	ListReports() ([]models.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
	ExportReports() ([]byte, error)
}

type adminService struct {
	users   repositories.UserRepository
	reports repositories.ReportRepository
	auth    AuthService
	gateway PersistenceGateway
	logger  *slog.Logger
}

func NewAdminService(users repositories.UserRepository, reports repositories.ReportRepository, auth AuthService, gateway PersistenceGateway, logger *slog.Logger) AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &adminService{
		users:   users,
		reports: reports,
		auth:    auth,
		gateway: gateway,
		logger:  logger,
	}
}

func (s *adminService) ListUsers() ([]models.User, error) {
	users, err := s.users.List()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMetadata, "admin.ListUsers", "could not load users", err)
	}
	return users, nil
}

// ToggleAdmin flips the target's role. Admins cannot revoke their own
// privileges. The new role applies to the target's next request.
func (s *adminService) ToggleAdmin(actorID, targetID uuid.UUID) (*models.User, error) {
	const op = "admin.ToggleAdmin"

	target, err := s.users.FindByID(targetID)
	if err != nil {
		return nil, lookupError(op, err)
	}
	if target.ID == actorID && target.IsAdmin {
		return nil, apperror.New(apperror.KindForbidden, op, "you cannot revoke your own administrator privileges")
	}

	if err := s.users.SetAdmin(target.ID, !target.IsAdmin); err != nil {
		return nil, lookupError(op, err)
	}
	target.IsAdmin = !target.IsAdmin

	s.logger.Info("role changed",
		slog.String("actor_id", actorID.String()),
		slog.String("user_id", target.ID.String()),
		slog.Bool("is_admin", target.IsAdmin),
	)
	return target, nil
}

func (s *adminService) InviteMember(req models.InviteRequest) (*models.User, error) {
	return s.auth.Invite(req)
}

// DeleteUser removes the user's reports one by one and the account last.
// The first report that cannot be removed stops the cascade with the
// account still in place.
func (s *adminService) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	const op = "admin.DeleteUser"

	if actorID == targetID {
		return apperror.New(apperror.KindForbidden, op, "you cannot delete your own account")
	}
	if _, err := s.users.FindByID(targetID); err != nil {
		return lookupError(op, err)
	}

	reports, err := s.reports.ListByOwner(targetID)
	if err != nil {
		return apperror.Wrap(apperror.KindMetadata, op, "could not load the user's reports", err)
	}
	for _, r := range reports {
		if err := s.gateway.DeleteReport(ctx, r.ID); err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
			s.logger.Error("user deletion stopped",
				slog.String("user_id", targetID.String()),
				slog.String("report_id", r.ID.String()),
				slog.Any("error", err),
			)
			return err
		}
	}

	if err := s.auth.DeleteUser(targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		slog.String("actor_id", actorID.String()),
		slog.String("user_id", targetID.String()),
		slog.Int("reports", len(reports)),
	)
	return nil
}

func (s *adminService) ListReports() ([]models.Report, error) {
	reports, err := s.reports.ListAll()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindMetadata, "admin.ListReports", "could not load reports", err)
	}
	return reports, nil
}

func (s *adminService) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return s.gateway.DeleteReport(ctx, id)
}

func (s *adminService) ExportReports() ([]byte, error) {
	const op = "admin.ExportReports"

	reports, err := s.ListReports()
	if err != nil {
		return nil, err
	}
	data, err := ExportReportsXLSX(reports)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, op, "could not build the export", err)
	}
	return data, nil
}
