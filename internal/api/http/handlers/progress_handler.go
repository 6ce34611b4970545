package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// ProgressHandler manages measurement history endpoints, nested under a
// student resource.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: progressService}
}

// Create POST /students/:id/progress.
func (h *ProgressHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	log, err := h.service.Create(c.UserContext(), ac, service.ProgressCreateInput{
		StudentID:    c.Params("id"),
		RecordedOn:   req.RecordedOn,
		WeightKg:     req.WeightKg,
		Measurements: req.Measurements,
		Notes:        req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": progressResponse(log)})
}

// List GET /students/:id/progress.
func (h *ProgressHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	logs, err := h.service.ListByStudent(c.UserContext(), ac, c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ProgressResponse, 0, len(logs))
	for i := range logs {
		items = append(items, progressResponse(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func progressResponse(p *domain.ProgressLog) dto.ProgressResponse {
	return dto.ProgressResponse{
		ID:           p.ID,
		StudentID:    p.StudentID,
		RecordedOn:   p.RecordedOn,
		WeightKg:     p.WeightKg,
		Measurements: p.Measurements,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
	}
}
