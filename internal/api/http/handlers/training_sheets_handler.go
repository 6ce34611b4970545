package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// TrainingSheetsHandler manages workout plan endpoints.
type TrainingSheetsHandler struct {
	service *service.TrainingService
}

// NewTrainingSheetsHandler constructs handler.
func NewTrainingSheetsHandler(trainingService *service.TrainingService) *TrainingSheetsHandler {
	return &TrainingSheetsHandler{service: trainingService}
}

// Create POST /training-sheets.
func (h *TrainingSheetsHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TrainingSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sheet, err := h.service.Create(c.UserContext(), ac, sheetInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sheetResponse(sheet)})
}

// List GET /training-sheets.
func (h *TrainingSheetsHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	sheets, err := h.service.List(c.UserContext(), ac, parseSheetQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TrainingSheetResponse, 0, len(sheets))
	for i := range sheets {
		items = append(items, sheetResponse(&sheets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /training-sheets/:id.
func (h *TrainingSheetsHandler) Get(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	sheet, err := h.service.Get(c.UserContext(), ac, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sheetResponse(sheet)})
}

// Update PUT /training-sheets/:id.
func (h *TrainingSheetsHandler) Update(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TrainingSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sheet, err := h.service.Update(c.UserContext(), ac, c.Params("id"), sheetInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sheetResponse(sheet)})
}

func sheetInput(req dto.TrainingSheetRequest) service.TrainingSheetInput {
	exercises := make([]service.ExerciseInput, 0, len(req.Exercises))
	for _, ex := range req.Exercises {
		exercises = append(exercises, service.ExerciseInput{
			Name:            ex.Name,
			Description:     ex.Description,
			DurationSeconds: ex.DurationSeconds,
			RestSeconds:     ex.RestSeconds,
		})
	}
	return service.TrainingSheetInput{
		StudentID:   req.StudentID,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Exercises:   exercises,
	}
}

func parseSheetQuery(c *fiber.Ctx) repository.TrainingSheetFilter {
	filter := repository.TrainingSheetFilter{}
	if studentID := c.Query("student_id"); studentID != "" {
		filter.StudentID = &studentID
	}
	if templates := c.Query("templates"); templates != "" {
		if only, err := strconv.ParseBool(templates); err == nil {
			filter.TemplatesOnly = only
		}
	}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.Active = &active
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func sheetResponse(s *domain.TrainingSheet) dto.TrainingSheetResponse {
	exercises := make([]dto.ExerciseResponse, 0, len(s.Exercises))
	for _, ex := range s.Exercises {
		exercises = append(exercises, dto.ExerciseResponse{
			ID:              ex.ID,
			Position:        ex.Position,
			Name:            ex.Name,
			Description:     ex.Description,
			DurationSeconds: ex.DurationSeconds,
			RestSeconds:     ex.RestSeconds,
		})
	}
	return dto.TrainingSheetResponse{
		ID:          s.ID,
		TenantID:    s.TenantID,
		StudentID:   s.StudentID,
		Name:        s.Name,
		Description: s.Description,
		Active:      s.Active,
		Exercises:   exercises,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
