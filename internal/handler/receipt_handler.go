package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/service"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/response"
)

// ReceiptHandler exposes receipt download endpoints. Links are signed
// and time-limited; the download route itself is unauthenticated so a
// link can be handed to a parent.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Link godoc
// @Summary Get a signed download link for a payment's receipt
// @Tags Receipts
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/receipt-link [get]
func (h *ReceiptHandler) Link(c *gin.Context) {
	token, expiresAt, err := h.receipts.SignedLink(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReceiptLinkResponse{
		Token:     token,
		URL:       fmt.Sprintf("/receipts/download?token=%s", token),
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, nil)
}

// Download godoc
// @Summary Download a receipt PDF with a signed token
// @Tags Receipts
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file "PDF receipt"
// @Router /receipts/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.receipts.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(file.Name())))
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, filepath.Base(file.Name()), modTime(file), file)
}

func modTime(file *os.File) time.Time {
	info, err := file.Stat()
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
