package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/service"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/response"
)

// EnrollmentWizardHandler exposes the club enrollment wizard endpoints.
// Every session-scoped route returns the full session snapshot so the
// client can re-render from scratch after any call.
type EnrollmentWizardHandler struct {
	wizard *service.EnrollmentWizardService
}

// NewEnrollmentWizardHandler constructs EnrollmentWizardHandler.
func NewEnrollmentWizardHandler(wizard *service.EnrollmentWizardService) *EnrollmentWizardHandler {
	return &EnrollmentWizardHandler{wizard: wizard}
}

// Start godoc
// @Summary Start a club enrollment wizard session
// @Tags Enrollment Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /enrollments/wizard [post]
func (h *EnrollmentWizardHandler) Start(c *gin.Context) {
	response.Created(c, h.wizard.Start(c.Request.Context()))
}

// Resume godoc
// @Summary Reopen a saved enrollment draft in a new session
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param payload body dto.ResumeDraftRequest true "Draft reference"
// @Success 201 {object} response.Envelope
// @Router /enrollments/wizard/resume [post]
func (h *EnrollmentWizardHandler) Resume(c *gin.Context) {
	var req dto.ResumeDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.wizard.Resume(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, state)
}

// GetState godoc
// @Summary Get the current wizard session snapshot
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId} [get]
func (h *EnrollmentWizardHandler) GetState(c *gin.Context) {
	state, err := h.wizard.GetState(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// SelectClub godoc
// @Summary Select the club for the session
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SelectClubRequest true "Club selection"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/club [put]
func (h *EnrollmentWizardHandler) SelectClub(c *gin.Context) {
	var req dto.SelectClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.wizard.SelectClub(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// EligibleStudents godoc
// @Summary List students eligible for the selected club
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/students [get]
func (h *EnrollmentWizardHandler) EligibleStudents(c *gin.Context) {
	students, err := h.wizard.EligibleStudents(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// SelectStudent godoc
// @Summary Select the student for the session
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SelectStudentRequest true "Student selection"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/student [put]
func (h *EnrollmentWizardHandler) SelectStudent(c *gin.Context) {
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
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.UpdatePaymentRequest true "Partial payment update"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/payment [patch]
func (h *EnrollmentWizardHandler) UpdatePayment(c *gin.Context) {
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

// Proration godoc
// @Summary Preview the month-by-month fee projection
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/proration [get]
func (h *EnrollmentWizardHandler) Proration(c *gin.Context) {
	preview, err := h.wizard.Proration(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Next godoc
// @Summary Advance the session one step, saving the draft
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/next [post]
func (h *EnrollmentWizardHandler) Next(c *gin.Context) {
	state, err := h.wizard.Next(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Previous godoc
// @Summary Move the session back one step
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/previous [post]
func (h *EnrollmentWizardHandler) Previous(c *gin.Context) {
	state, err := h.wizard.Previous(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Goto godoc
// @Summary Jump to a completed step or the immediate next one
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.GotoStepRequest true "Target step"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/goto [post]
func (h *EnrollmentWizardHandler) Goto(c *gin.Context) {
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
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/reset [post]
func (h *EnrollmentWizardHandler) Reset(c *gin.Context) {
	state, err := h.wizard.Reset(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Submit godoc
// @Summary Finalize the enrollment
// @Tags Enrollment Wizard
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /enrollments/wizard/{sessionId}/submit [post]
func (h *EnrollmentWizardHandler) Submit(c *gin.Context) {
	result, err := h.wizard.Submit(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
