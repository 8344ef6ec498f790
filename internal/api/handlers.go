package api

import (
	"errors"
	"net/http"
	"strconv"

	"merchant-bot/internal/service"
	"merchant-bot/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
	logger  *utils.Logger
}

func (h *Handler) GetDashboard(c *gin.Context) {
	days := intQuery(c, "days", 7)
	stats, err := h.service.GetDashboardStats(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetActivity(c *gin.Context) {
	days := intQuery(c, "days", 7)
	stats, err := h.service.GetActivityStats(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetFunnel(c *gin.Context) {
	days := intQuery(c, "days", 30)
	stats, err := h.service.GetFunnelStats(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetCohorts(c *gin.Context) {
	rows, err := h.service.GetCohortAnalysis(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetSegments(c *gin.Context) {
	days := intQuery(c, "days", 30)
	segments, err := h.service.GetUserSegments(c.Request.Context(), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, segments)
}

func (h *Handler) ListMerchants(c *gin.Context) {
	merchants, err := h.service.ListMerchants(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, merchants)
}

func (h *Handler) GetMerchant(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	merchant, err := h.service.GetMerchantByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if merchant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "merchant not found"})
		return
	}
	c.JSON(http.StatusOK, merchant)
}

func (h *Handler) UpdateMerchantStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateMerchantStatus(c.Request.Context(), id, body.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListCodes(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	codes, err := h.service.ListBindingCodes(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}

func (h *Handler) GenerateCode(c *gin.Context) {
	var body struct {
		ExpiryHours int `json:"expiry_hours"`
	}
	// An empty body falls back to the configured default expiry; a negative
	// value makes a non-expiring code.
	_ = c.ShouldBindJSON(&body)

	code, err := h.service.GenerateBindingCode(c.Request.Context(), body.ExpiryHours)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (h *Handler) DeleteCode(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBindingCode(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListCities(c *gin.Context) {
	cities, err := h.service.AllCities(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

func (h *Handler) CreateCity(c *gin.Context) {
	var body struct {
		Name         string `json:"name" binding:"required"`
		DisplayOrder int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, err := h.service.CreateCity(c.Request.Context(), body.Name, body.DisplayOrder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *Handler) UpdateCity(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body struct {
		Name         string `json:"name"`
		DisplayOrder *int   `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateCityInfo(c.Request.Context(), id, body.Name, body.DisplayOrder); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) DeleteCity(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCity(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrCityHasDistricts) {
			c.JSON(http.StatusConflict, gin.H{"error": "city still has districts"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListDistricts(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	districts, err := h.service.DistrictsByCity(c.Request.Context(), id, false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, districts)
}

func (h *Handler) CreateDistrict(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body struct {
		Name         string `json:"name" binding:"required"`
		DisplayOrder int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	district, err := h.service.CreateDistrict(c.Request.Context(), id, body.Name, body.DisplayOrder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, district)
}

func (h *Handler) DeleteDistrict(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDistrict(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context(), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var body struct {
		Time         string `json:"time" binding:"required"`
		DisplayOrder int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.service.CreateTimeSlot(c.Request.Context(), body.Time, body.DisplayOrder)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTimeSlot(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetSlotOccupancy(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}
	options, err := h.service.SlotOptionsForDate(c.Request.Context(), date, nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *Handler) RunCleanup(c *gin.Context) {
	codes, err := h.service.CleanupExpiredCodes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	logs, err := h.service.CleanupOldLogs(c.Request.Context(), intQuery(c, "days", 90))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes_deleted": codes, "logs_deleted": logs})
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Errorf("API error on %s: %v", c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func idParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(v), true
}
