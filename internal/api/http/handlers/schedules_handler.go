package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// SchedulesHandler manages training session endpoints.
type SchedulesHandler struct {
	service *service.ScheduleService
}

// NewSchedulesHandler constructs handler.
func NewSchedulesHandler(scheduleService *service.ScheduleService) *SchedulesHandler {
	return &SchedulesHandler{service: scheduleService}
}

// Create POST /schedules.
func (h *SchedulesHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StudentID == "" {
		return apperrors.NewValidationError("student_id required", nil)
	}
	schedule, err := h.service.Create(c.UserContext(), ac, service.ScheduleCreateInput{
		StudentID:       req.StudentID,
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": scheduleResponse(schedule)})
}

// List GET /schedules.
func (h *SchedulesHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	schedules, err := h.service.List(c.UserContext(), ac, parseScheduleQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		items = append(items, scheduleResponse(&schedules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /schedules/:id.
func (h *SchedulesHandler) Get(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	schedule, err := h.service.Get(c.UserContext(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scheduleResponse(schedule)})
}

// Update PUT /schedules/:id.
func (h *SchedulesHandler) Update(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	schedule, err := h.service.Update(c.UserContext(), ac, c.Params("id"), service.ScheduleUpdateInput{
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Notes:           req.Notes,
		Status:          req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scheduleResponse(schedule)})
}

// Cancel POST /schedules/:id/cancel.
func (h *SchedulesHandler) Cancel(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	schedule, err := h.service.Cancel(c.UserContext(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": scheduleResponse(schedule)})
}

func parseScheduleQuery(c *fiber.Ctx) repository.ScheduleFilter {
	filter := repository.ScheduleFilter{}
	if studentID := c.Query("student_id"); studentID != "" {
		filter.StudentID = &studentID
	}
	if from := parseTime(c.Query("from")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.To = to
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ScheduleStatus(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func scheduleResponse(s *domain.Schedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:              s.ID,
		TenantID:        s.TenantID,
		StudentID:       s.StudentID,
		StartsAt:        s.StartsAt,
		DurationMinutes: s.DurationMinutes,
		Location:        s.Location,
		Notes:           s.Notes,
		Status:          s.Status,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
