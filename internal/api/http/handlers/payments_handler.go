package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/domain"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// PaymentsHandler manages ledger endpoints.
type PaymentsHandler struct {
	service *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{service: paymentService}
}

// Create POST /payments.
func (h *PaymentsHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.Create(c.UserContext(), ac, service.PaymentCreateInput{
		StudentID:   req.StudentID,
		AmountCents: req.AmountCents,
		PaidOn:      req.PaidOn,
		Kind:        req.Kind,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": paymentResponse(payment)})
}

// List GET /payments.
func (h *PaymentsHandler) List(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	payments, err := h.service.List(c.UserContext(), ac, parsePaymentQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parsePaymentQuery(c *fiber.Ctx) repository.PaymentFilter {
	filter := repository.PaymentFilter{}
	if studentID := c.Query("student_id"); studentID != "" {
		filter.StudentID = &studentID
	}
	if kind := c.Query("kind"); kind != "" {
		k := domain.PaymentKind(kind)
		filter.Kind = &k
	}
	if from := parseTime(c.Query("from")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		filter.To = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func paymentResponse(p *domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		StudentID:   p.StudentID,
		AmountCents: p.AmountCents,
		PaidOn:      p.PaidOn,
		Kind:        p.Kind,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
