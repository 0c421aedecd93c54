package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/service"
	"github.com/noah-isme/sma-club-api/pkg/response"
)

// ClubHandler exposes the club catalogue endpoints.
type ClubHandler struct {
	clubs *service.ClubService
}

// NewClubHandler constructs ClubHandler.
func NewClubHandler(clubs *service.ClubService) *ClubHandler {
	return &ClubHandler{clubs: clubs}
}

// List godoc
// @Summary List clubs
// @Tags Clubs
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Search by name"
// @Param active query boolean false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /clubs [get]
func (h *ClubHandler) List(c *gin.Context) {
	var filter models.ClubFilter
	filter.Category = c.Query("category")
	filter.Search = c.Query("search")
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	clubs, pagination, err := h.clubs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clubs, pagination)
}

// Get godoc
// @Summary Get club detail with live enrollment count
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /clubs/{id} [get]
func (h *ClubHandler) Get(c *gin.Context) {
	club, err := h.clubs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, club, nil)
}

// Roster godoc
// @Summary Export club roster as CSV
// @Tags Clubs
// @Produce text/csv
// @Param id path string true "Club ID"
// @Success 200 {string} string "CSV file"
// @Router /clubs/{id}/roster [get]
func (h *ClubHandler) Roster(c *gin.Context) {
	data, filename, err := h.clubs.RosterCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
