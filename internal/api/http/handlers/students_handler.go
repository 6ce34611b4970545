package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// StudentsHandler manages roster endpoints.
type StudentsHandler struct {
	service *service.StudentService
}

// NewStudentsHandler constructs handler.
func NewStudentsHandler(studentService *service.StudentService) *StudentsHandler {
	return &StudentsHandler{service: studentService}
}

// Create POST /students.
func (h *StudentsHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	student, err := h.service.Create(c.UserContext(), ac, service.StudentCreateInput{
		TenantID:        req.TenantID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		BirthDate:       req.BirthDate,
		Goal:            req.Goal,
		DefaultLocation: req.DefaultLocation,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": studentResponse(student)})
}

// List GET /students.
func (h *StudentsHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	students, err := h.service.List(c.UserContext(), ac, parseStudentQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		items = append(items, studentResponse(&students[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /students/:id.
func (h *StudentsHandler) Get(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	student, err := h.service.Get(c.UserContext(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": studentResponse(student)})
}

// Update PUT /students/:id.
func (h *StudentsHandler) Update(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	student, err := h.service.Update(c.UserContext(), ac, c.Params("id"), service.StudentUpdateInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		BirthDate:       req.BirthDate,
		Goal:            req.Goal,
		DefaultLocation: req.DefaultLocation,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": studentResponse(student)})
}

// Deactivate DELETE /students/:id.
func (h *StudentsHandler) Deactivate(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Deactivate(c.UserContext(), ac, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats GET /students/stats.
func (h *StudentsHandler) Stats(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.UserContext(), ac)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StudentStatsResponse{
		Total:        stats.Total,
		Active:       stats.Active,
		Inactive:     stats.Inactive,
		NewThisMonth: stats.NewThisMonth,
	}})
}

func parseStudentQuery(c *fiber.Ctx) repository.StudentFilter {
	filter := repository.StudentFilter{}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.Active = &active
		}
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func studentResponse(s *domain.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:              s.ID,
		TenantID:        s.TenantID,
		Name:            s.Name,
		Email:           s.Email,
		Phone:           s.Phone,
		BirthDate:       s.BirthDate,
		Goal:            s.Goal,
		DefaultLocation: s.DefaultLocation,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
