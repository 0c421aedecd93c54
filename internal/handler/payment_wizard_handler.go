package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/service"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/response"
)

// PaymentWizardHandler exposes the standalone payment wizard endpoints.
type PaymentWizardHandler struct {
	wizard *service.PaymentWizardService
}

// NewPaymentWizardHandler constructs PaymentWizardHandler.
func NewPaymentWizardHandler(wizard *service.PaymentWizardService) *PaymentWizardHandler {
	return &PaymentWizardHandler{wizard: wizard}
}

// Start godoc
// @Summary Start a payment wizard session
// @Tags Payment Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /payments/wizard [post]
func (h *PaymentWizardHandler) Start(c *gin.Context) {
	response.Created(c, h.wizard.Start(c.Request.Context()))
}

// Detail godoc
// @Summary Get a payment with its display context
// @Tags Payment Wizard
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentWizardHandler) Detail(c *gin.Context) {
	detail, err := h.wizard.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetState godoc
// @Summary Get the current wizard session snapshot
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId} [get]
func (h *PaymentWizardHandler) GetState(c *gin.Context) {
	state, err := h.wizard.GetState(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SelectStudent godoc
// @Summary Select the student being paid for
// @Tags Payment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SelectStudentRequest true "Student selection"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/student [put]
func (h *PaymentWizardHandler) SelectStudent(c *gin.Context) {
	var req dto.SelectStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.wizard.SelectStudent(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// UpdatePayment godoc
// @Summary Merge a partial payment update into the session
// @Tags Payment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.UpdatePaymentRequest true "Partial payment update"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/payment [patch]
func (h *PaymentWizardHandler) UpdatePayment(c *gin.Context) {
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.wizard.UpdatePayment(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SuggestReceiptNumber godoc
// @Summary Pre-fill the next receipt number for the chosen method
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/receipt-number [post]
func (h *PaymentWizardHandler) SuggestReceiptNumber(c *gin.Context) {
	suggestion, err := h.wizard.SuggestReceiptNumber(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Next godoc
// @Summary Advance the session one step, saving the draft
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/next [post]
func (h *PaymentWizardHandler) Next(c *gin.Context) {
	state, err := h.wizard.Next(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Previous godoc
// @Summary Move the session back one step
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/previous [post]
func (h *PaymentWizardHandler) Previous(c *gin.Context) {
	state, err := h.wizard.Previous(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Goto godoc
// @Summary Jump to a completed step or the immediate next one
// @Tags Payment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.GotoStepRequest true "Target step"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/goto [post]
func (h *PaymentWizardHandler) Goto(c *gin.Context) {
	var req dto.GotoStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.wizard.Goto(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Reset godoc
// @Summary Reset the session to its initial state
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/reset [post]
func (h *PaymentWizardHandler) Reset(c *gin.Context) {
	state, err := h.wizard.Reset(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Submit godoc
// @Summary Confirm the payment
// @Tags Payment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /payments/wizard/{sessionId}/submit [post]
func (h *PaymentWizardHandler) Submit(c *gin.Context) {
	result, err := h.wizard.Submit(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
