package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"grocery-service/internal/models"
	"grocery-service/internal/reservation"
	"grocery-service/internal/service"
	"grocery-service/internal/store"
	"grocery-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog *service.CatalogService
	carts   *service.CartService
	orders  *service.OrderService
	slots   *service.SlotService
	drafts  *service.DraftService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	carts *service.CartService,
	orders *service.OrderService,
	slots *service.SlotService,
	drafts *service.DraftService,
) *Handler {
	return &Handler{
		catalog: catalog,
		carts:   carts,
		orders:  orders,
		slots:   slots,
		drafts:  drafts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id/availability", h.productAvailability)

		v1.POST("/holds", h.acquireHold)
		v1.DELETE("/holds", h.releaseHold)

		v1.POST("/cart/items", h.addCartItem)
		v1.DELETE("/cart/items/:product_id", h.removeCartItem)
		v1.GET("/cart", h.getCart)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/checkout", h.checkout)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/orders/:id/status", h.getOrderStatus)
		v1.POST("/orders/:id/accept", h.acceptOrder)
		v1.POST("/orders/:id/dispatch", h.dispatchOrder)
		v1.POST("/orders/:id/deliver", h.deliverOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		v1.GET("/slots", h.listSlots)
		v1.POST("/slots/:id/toggle", h.toggleSlot)

		v1.POST("/admin/drafts", h.startDraft)
		v1.POST("/admin/drafts/advance", h.advanceDraft)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListAvailable(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) productAvailability(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	available, err := h.catalog.AvailableQuantity(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"available":  available,
	})
}

type holdRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	UserID    int64 `json:"user_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) acquireHold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalog.AcquireHold(c.Request.Context(), req.ProductID, req.UserID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"held": true})
}

func (h *Handler) releaseHold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	h.catalog.ReleaseHold(req.ProductID, req.UserID)
	c.JSON(http.StatusOK, gin.H{"released": true})
}

type addCartItemRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// addCartItem sequences hold acquisition before the cart write; a failed
// write releases the hold again.
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.catalog.AcquireHold(ctx, req.ProductID, req.UserID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	line, err := h.carts.AddLine(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.catalog.ReleaseHold(req.ProductID, req.UserID)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	if err := h.carts.RemoveLine(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (h *Handler) getCart(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	lines, err := h.carts.Lines(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (h *Handler) clearCart(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.Checkout(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if status := c.Query("status"); status != "" {
		orders, err := h.orders.ListByStatus(ctx, models.OrderStatus(status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, lines, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "lines": lines})
}

func (h *Handler) getOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	status, err := h.orders.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": status})
}

func (h *Handler) acceptOrder(c *gin.Context) {
	h.transition(c, h.orders.Accept)
}

func (h *Handler) dispatchOrder(c *gin.Context) {
	h.transition(c, h.orders.Dispatch)
}

func (h *Handler) deliverOrder(c *gin.Context) {
	h.transition(c, h.orders.MarkDelivered)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) listSlots(c *gin.Context) {
	slots, err := h.slots.ActiveSlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) toggleSlot(c *gin.Context) {
	slotID, ok := paramID(c, "id")
	if !ok {
		return
	}

	slot, err := h.slots.Toggle(c.Request.Context(), slotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot})
}

type startDraftRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ProductID int64 `json:"product_id"`
}

func (h *Handler) startDraft(c *gin.Context) {
	var req startDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var draft *models.ProductDraft
	var err error
	if req.ProductID != 0 {
		draft, err = h.drafts.StartFromProduct(ctx, req.UserID, req.ProductID)
	} else {
		draft, err = h.drafts.Start(ctx, req.UserID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": draft})
}

type advanceDraftRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Value  string `json:"value" binding:"required"`
}

func (h *Handler) advanceDraft(c *gin.Context) {
	var req advanceDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	draft, product, err := h.drafts.Advance(c.Request.Context(), req.UserID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	if product != nil {
		c.JSON(http.StatusCreated, gin.H{"product": product})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, orderID int64) (*models.Order, error)) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reservation.ErrHoldConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "temporarily unavailable, try again"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, reservation.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientQuantity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid " + name})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
