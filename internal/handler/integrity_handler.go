package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/pps-admin-api/internal/models"
	"github.com/noah-isme/pps-admin-api/internal/service"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
	"github.com/noah-isme/pps-admin-api/pkg/response"
)

// RemediateRequest identifies the issue the operator approved.
type RemediateRequest struct {
	Code        string `json:"code" validate:"required"`
	Table       string `json:"table" validate:"required"`
	TargetID    string `json:"target_id" validate:"required"`
	Remediation string `json:"remediation" validate:"required,oneof=delete manual autofix"`
}

// IntegrityHandler exposes the scanner and remediation endpoints.
type IntegrityHandler struct {
	integrity *service.IntegrityService
	merges    *service.MergeService
	exports   *service.ExportService
	validator *validator.Validate
	now       func() time.Time
}

// NewIntegrityHandler constructs IntegrityHandler.
func NewIntegrityHandler(integrity *service.IntegrityService, merges *service.MergeService, exports *service.ExportService, validate *validator.Validate) *IntegrityHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &IntegrityHandler{
		integrity: integrity,
		merges:    merges,
		exports:   exports,
		validator: validate,
		now:       time.Now,
	}
}

// Scan godoc
// @Summary Run the integrity scan
// @Tags Integrity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /integrity/scan [get]
func (h *IntegrityHandler) Scan(c *gin.Context) {
	issues, err := h.integrity.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, nil, map[string]interface{}{"count": len(issues)})
}

// Remediate godoc
// @Summary Apply an auto-fix remediation
// @Tags Integrity
// @Accept json
// @Produce json
// @Param payload body RemediateRequest true "Approved issue"
// @Success 200 {object} response.Envelope
// @Router /integrity/remediate [post]
func (h *IntegrityHandler) Remediate(c *gin.Context) {
	var req RemediateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remediation payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remediation payload"))
		return
	}

	issue := models.Issue{
		Code:        req.Code,
		Table:       req.Table,
		TargetID:    req.TargetID,
		Remediation: req.Remediation,
	}
	result, err := h.integrity.ApplyRemediation(c.Request.Context(), issue)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// PendingMerges godoc
// @Summary List merge intents whose cascade never finished
// @Tags Integrity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /integrity/merges/pending [get]
func (h *IntegrityHandler) PendingMerges(c *gin.Context) {
	intents, err := h.merges.PendingMerges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intents, nil)
}

// ScanExport godoc
// @Summary Export the scan result
// @Tags Integrity
// @Produce application/octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /integrity/scan/export [get]
func (h *IntegrityHandler) ScanExport(c *gin.Context) {
	issues, err := h.integrity.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	table := h.exports.IssuesTable(issues, h.now())
	writeTable(c, table, "integrity-scan", h.now())
}
