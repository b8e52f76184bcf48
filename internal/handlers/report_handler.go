package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/services"
)

type ReportHandler struct {
	catalog services.ReportCatalog
}

func NewReportHandler(catalog services.ReportCatalog) *ReportHandler {
	return &ReportHandler{catalog: catalog}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Wrap(apperror.KindValidation, "handlers.parseID", "invalid ID format", err)
	}
	return id, nil
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	reports, err := h.catalog.ListOwn(currentSession(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

func (h *ReportHandler) Search(c *fiber.Ctx) error {
	hits, err := h.catalog.Search(c.UserContext(), currentSession(c), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": hits})
}

func (h *ReportHandler) Document(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}

	report, data, err := h.catalog.Document(c.UserContext(), currentSession(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return sendDocument(c, report.DocumentFilename, data)
}
