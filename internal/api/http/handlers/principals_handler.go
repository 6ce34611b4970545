package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// PrincipalsHandler covers the caller's own identity plus the admin surface
// for provisioning and trainer onboarding.
type PrincipalsHandler struct {
	service *service.PrincipalService
}

// NewPrincipalsHandler constructs handler.
func NewPrincipalsHandler(principalService *service.PrincipalService) *PrincipalsHandler {
	return &PrincipalsHandler{service: principalService}
}

// Me GET /me.
func (h *PrincipalsHandler) Me(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	principal, err := h.service.Me(c.UserContext(), ac)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": principalResponse(principal)})
}

// Provision POST /principals.
func (h *PrincipalsHandler) Provision(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProvisionPrincipalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	principal, err := h.service.Provision(c.UserContext(), ac, service.PrincipalProvisionInput{
		ExternalSubjectID: req.ExternalSubjectID,
		Email:             req.Email,
		Name:              req.Name,
		Role:              req.Role,
		TenantID:          req.TenantID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": principalResponse(principal)})
}

// List GET /principals.
func (h *PrincipalsHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	principals, err := h.service.List(c.UserContext(), ac, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.PrincipalResponse, 0, len(principals))
	for i := range principals {
		items = append(items, principalResponse(&principals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Deactivate DELETE /principals/:id.
func (h *PrincipalsHandler) Deactivate(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Deactivate(c.UserContext(), ac, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTrainer POST /trainers.
func (h *PrincipalsHandler) CreateTrainer(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PrincipalID == "" {
		return apperrors.NewValidationError("principal_id required", nil)
	}
	trainer, err := h.service.CreateTrainer(c.UserContext(), ac, service.TrainerCreateInput{
		PrincipalID: req.PrincipalID,
		Phone:       req.Phone,
		Specialty:   req.Specialty,
		Bio:         req.Bio,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": trainerResponse(trainer)})
}

func principalResponse(p *domain.Principal) dto.PrincipalResponse {
	return dto.PrincipalResponse{
		ID:                p.ID,
		ExternalSubjectID: p.ExternalSubjectID,
		Email:             p.Email,
		Name:              p.Name,
		Role:              p.Role,
		TenantID:          p.TenantID,
		Active:            p.Active,
		CreatedAt:         p.CreatedAt,
	}
}

func trainerResponse(t *domain.Trainer) dto.TrainerResponse {
	return dto.TrainerResponse{
		ID:          t.ID,
		PrincipalID: t.PrincipalID,
		Phone:       t.Phone,
		Specialty:   t.Specialty,
		Bio:         t.Bio,
		CreatedAt:   t.CreatedAt,
	}
}
