package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	admin services.AdminService
}

func NewAdminHandler(admin services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type userRow struct {
	models.User
	Role string `json:"role"`
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers()
	if err != nil {
		return respondError(c, err)
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{User: u, Role: u.Role()})
	}
	return c.JSON(fiber.Map{"users": rows})
}

func (h *AdminHandler) Invite(c *fiber.Ctx) error {
	var req models.InviteRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.admin.InviteMember(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Invited %s. They must change the temporary password at first login.", user.Email),
		"level":   LevelSuccess,
		"user":    userRow{User: *user, Role: user.Role()},
	})
}

func (h *AdminHandler) ToggleAdmin(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.admin.ToggleAdmin(currentSession(c).UserID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s is now %s.", user.Email, user.Role()),
		"level":   LevelSuccess,
		"user":    userRow{User: *user, Role: user.Role()},
	})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.admin.DeleteUser(c.UserContext(), currentSession(c).UserID, id); err != nil {
		return respondError(c, err)
	}
	return banner(c, fiber.StatusOK, LevelSuccess, "User and their reports were deleted.")
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	reports, err := h.admin.ListReports()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (h *AdminHandler) Export(c *fiber.Ctx) error {
	data, err := h.admin.ExportReports()
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment(fmt.Sprintf("jd_cv_reports_%s.xlsx", time.Now().Format("20060102_150405")))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}

func (h *AdminHandler) DeleteReport(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.admin.DeleteReport(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return banner(c, fiber.StatusOK, LevelSuccess, "Report deleted.")
}
