package restapi

import (
	"context"
	"net/http"

	"whalewatch/internal/app/service"
	"whalewatch/internal/derive"
	"whalewatch/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// WhaleHandler serves the derived sync-layer state to the dashboard
// frontend.
type WhaleHandler struct {
	store     *service.Store
	scheduler *service.RefreshScheduler
	mutator   *service.MutationCoordinator
	alerting  *service.AlertingService
}

// NewWhaleHandler creates the handler set over the sync-layer services.
func NewWhaleHandler(
	store *service.Store,
	scheduler *service.RefreshScheduler,
	mutator *service.MutationCoordinator,
	alerting *service.AlertingService,
) *WhaleHandler {
	return &WhaleHandler{
		store:     store,
		scheduler: scheduler,
		mutator:   mutator,
		alerting:  alerting,
	}
}

// ListWhalesHandler returns the canonical collection, sorted by the
// caller-selected field. Query params: sort, dir (asc|desc).
func (h *WhaleHandler) ListWhalesHandler(c *gin.Context) {
	field := derive.ParseSortField(c.Query("sort"))
	descending := c.DefaultQuery("dir", "desc") == "desc"

	records := derive.SortRecords(h.store.Records(), field, descending)
	c.JSON(http.StatusOK, gin.H{
		"whales": records,
		"stats":  h.store.Stats(),
	})
}

// GetWhaleHandler returns one wallet with filtered position and order
// views. Query params: positions (all|long|short), orders (all|buy|sell).
func (h *WhaleHandler) GetWhaleHandler(c *gin.Context) {
	address := c.Param("address")
	rec, ok := h.store.RecordByAddress(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "wallet not tracked: " + address})
		return
	}

	positions := derive.FilterPositions(rec.Positions, derive.PositionFilter(c.DefaultQuery("positions", "all")))
	orders := derive.FilterOrders(rec.Orders, derive.OrderFilter(c.DefaultQuery("orders", "all")))

	c.JSON(http.StatusOK, gin.H{
		"whale":     rec,
		"positions": positions,
		"orders":    orders,
	})
}

// SelectWhaleHandler changes the selected wallet and triggers a refresh
// so its detail slices are populated.
func (h *WhaleHandler) SelectWhaleHandler(c *gin.Context) {
	address := c.Param("address")
	if _, ok := h.store.RecordByAddress(address); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "wallet not tracked: " + address})
		return
	}
	h.store.Select(address)
	// The request context dies with the handler; the refresh runs on its
	// own lifetime.
	go h.scheduler.RefreshNow(context.Background())
	c.JSON(http.StatusOK, gin.H{"selected": address})
}

// SelectionHandler returns the selected wallet's detail slices together
// with their scoped errors.
func (h *WhaleHandler) SelectionHandler(c *gin.Context) {
	rec, ok := h.store.SelectedRecord()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"selected": nil})
		return
	}
	positions, positionsErr := h.store.Positions()
	trades, tradesErr := h.store.Trades()
	c.JSON(http.StatusOK, gin.H{
		"selected":       rec,
		"positions":      positions,
		"positionsError": positionsErr,
		"trades":         trades,
		"tradesError":    tradesErr,
	})
}

// StatsHandler returns the portfolio-wide aggregates.
func (h *WhaleHandler) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// StatusHandler returns the sync-layer status snapshot, including the
// cached alerting probe.
func (h *WhaleHandler) StatusHandler(c *gin.Context) {
	h.alerting.Status(c.Request.Context())
	c.JSON(http.StatusOK, h.store.Snapshot())
}

type addWhaleRequest struct {
	Address  string `json:"address"`
	Nickname string `json:"nickname"`
}

// AddWhaleHandler validates and registers a new tracked wallet.
func (h *WhaleHandler) AddWhaleHandler(c *gin.Context) {
	var req addWhaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if err := h.mutator.AddWallet(c.Request.Context(), req.Address, req.Nickname); err != nil {
		if _, ok := err.(*entity.ValidationError); ok {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"detail": entity.ErrorDetail(err)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": req.Address})
}

// RemoveWhaleHandler implements the two-step removal intent over HTTP:
// the first call records the intent, a second call with ?confirm=true
// issues the delete.
func (h *WhaleHandler) RemoveWhaleHandler(c *gin.Context) {
	address := c.Param("address")

	if c.Query("confirm") != "true" {
		if err := h.mutator.RequestRemoval(address); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"pendingRemoval": address})
		return
	}

	if pending := h.mutator.PendingRemoval(); pending != address {
		c.JSON(http.StatusConflict, gin.H{"detail": "no matching removal pending for " + address})
		return
	}
	if err := h.mutator.ConfirmRemoval(c.Request.Context()); err != nil {
		if _, ok := err.(*entity.ValidationError); ok {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"detail": entity.ErrorDetail(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": address})
}

// RefreshHandler triggers an immediate out-of-cycle refresh.
func (h *WhaleHandler) RefreshHandler(c *gin.Context) {
	go h.scheduler.RefreshNow(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh triggered"})
}

// PauseHandler suspends the recurring refresh tick.
func (h *WhaleHandler) PauseHandler(c *gin.Context) {
	h.scheduler.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// ResumeHandler restarts the recurring refresh tick.
func (h *WhaleHandler) ResumeHandler(c *gin.Context) {
	h.scheduler.Resume()
	c.JSON(http.StatusOK, gin.H{"paused": false})
}
