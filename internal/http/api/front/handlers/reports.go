package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/ratelimit"
	"github.com/acmprop/acmprop/internal/reports"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportHandler serves valuation report CRUD for tenants.
type ReportHandler struct {
	db      *gorm.DB
	limiter *ratelimit.Manager
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(db *gorm.DB, limiter *ratelimit.Manager) *ReportHandler {
	return &ReportHandler{db: db, limiter: limiter}
}

// createReportRequest captures the payload for creating a report.
type createReportRequest struct {
	Kind    string          `json:"kind"`    // "acm" or "feasibility".
	Title   string          `json:"title"`   // Report title.
	Address string          `json:"address"` // Subject property address.
	Payload json.RawMessage `json:"payload"` // Kind-specific parameters.
}

// parseReportKind maps the wire kind to its model constant.
func parseReportKind(raw string) (models.ReportKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "acm":
		return models.ReportKindACM, true
	case "feasibility":
		return models.ReportKindFeasibility, true
	default:
		return 0, false
	}
}

// reportKindLabel maps a model constant back to its wire kind.
func reportKindLabel(kind models.ReportKind) string {
	switch kind {
	case models.ReportKindACM:
		return "acm"
	case models.ReportKindFeasibility:
		return "feasibility"
	default:
		return "unknown"
	}
}

// Create inserts a draft report, computing its estimated value.
func (h *ReportHandler) Create(c *gin.Context) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}
	userID, _ := getUserID(c)

	limit := ratelimit.LoadReportLimit(c.Request.Context(), h.db)
	result, errAllow := h.limiter.Allow(c.Request.Context(), ratelimit.KeyForReportCreate(empresaID), limit)
	if errAllow == nil && !result.Allowed {
		c.Header("Retry-After", strconv.FormatInt(int64(time.Until(result.Reset).Seconds())+1, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "report rate limit exceeded"})
		return
	}

	var body createReportRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	kind, okKind := parseReportKind(body.Kind)
	if !okKind {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	payload := body.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	estimated, errEstimate := reports.EstimateFromPayload(kind, payload)
	if errEstimate != nil && !errors.Is(errEstimate, reports.ErrNoComparables) {
		// Drafts may start incomplete; only structurally broken payloads are rejected.
		var jsonErr *json.SyntaxError
		if errors.As(errEstimate, &jsonErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		estimated = 0
	}

	now := time.Now().UTC()
	report := models.Report{
		EmpresaID:      empresaID,
		AuthorUserID:   userID,
		Kind:           kind,
		Title:          title,
		Address:        strings.TrimSpace(body.Address),
		Payload:        datatypes.JSON(payload),
		EstimatedValue: estimated,
		Currency:       billing.LoadCurrency(c.Request.Context(), h.db),
		Status:         models.ReportStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&report).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create report failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatReport(&report))
}

// List returns the tenant's reports, newest first.
func (h *ReportHandler) List(c *gin.Context) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).
		Where("empresa_id = ?", empresaID)
	if kindQ := strings.TrimSpace(c.Query("kind")); kindQ != "" {
		kind, okKind := parseReportKind(kindQ)
		if !okKind {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
		q = q.Where("kind = ?", kind)
	}

	var rows []models.Report
	if errFind := q.Order("created_at DESC, id DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list reports failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatReport(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

// Get fetches one of the tenant's reports.
func (h *ReportHandler) Get(c *gin.Context) {
	report, ok := h.loadOwnReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.formatReport(report))
}

// updateReportRequest captures optional fields for report updates.
type updateReportRequest struct {
	Title   *string          `json:"title"`   // Optional title update.
	Address *string          `json:"address"` // Optional address update.
	Payload *json.RawMessage `json:"payload"` // Optional payload update; re-estimates.
}

// Update edits a draft report. Final reports are read-only.
func (h *ReportHandler) Update(c *gin.Context) {
	report, ok := h.loadOwnReport(c)
	if !ok {
		return
	}
	if report.Status != models.ReportStatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "report is final"})
		return
	}

	var body updateReportRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		updates["title"] = title
	}
	if body.Address != nil {
		updates["address"] = strings.TrimSpace(*body.Address)
	}
	if body.Payload != nil {
		estimated, errEstimate := reports.EstimateFromPayload(report.Kind, *body.Payload)
		if errEstimate != nil && !errors.Is(errEstimate, reports.ErrNoComparables) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		updates["payload"] = datatypes.JSON(*body.Payload)
		updates["estimated_value"] = estimated
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.Report{}).
		Where("id = ?", report.ID).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Finalize marks a draft report as final. The payload must produce a value.
func (h *ReportHandler) Finalize(c *gin.Context) {
	report, ok := h.loadOwnReport(c)
	if !ok {
		return
	}
	if report.Status != models.ReportStatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "report is final"})
		return
	}

	estimated, errEstimate := reports.EstimateFromPayload(report.Kind, report.Payload)
	if errEstimate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "report payload incomplete"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", report.ID, models.ReportStatusDraft).
		Updates(map[string]any{
			"status":          models.ReportStatusFinal,
			"estimated_value": estimated,
			"updated_at":      time.Now().UTC(),
		}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "finalize report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "estimated_value": estimated})
}

// loadOwnReport fetches the :id report and enforces tenant ownership.
func (h *ReportHandler) loadOwnReport(c *gin.Context) (*models.Report, bool) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return nil, false
	}
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}

	var report models.Report
	errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND empresa_id = ?", id, empresaID).
		First(&report).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &report, true
}

// formatReport converts a report model into a response payload.
func (h *ReportHandler) formatReport(r *models.Report) gin.H {
	status := "draft"
	if r.Status == models.ReportStatusFinal {
		status = "final"
	}
	return gin.H{
		"id":              r.ID,
		"kind":            reportKindLabel(r.Kind),
		"title":           r.Title,
		"address":         r.Address,
		"payload":         r.Payload,
		"estimated_value": r.EstimatedValue,
		"currency":        r.Currency,
		"status":          status,
		"author_user_id":  r.AuthorUserID,
		"created_at":      r.CreatedAt,
		"updated_at":      r.UpdatedAt,
	}
}
