package handler

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/core/service"
)

// Connector is implemented by wallets the server can connect on request.
type Connector interface {
	Connect() error
	Disconnect()
}

type HTTPDeps struct {
	Availability *service.AvailabilityService
	Toaster      *service.Toaster
	Earnings     *service.EarningsTracker
	Claims       *service.ClaimService
	Purchases    *service.PurchaseService
	Wallet       *service.WalletSession
	Prompt       *service.ConnectPrompt
	Connector    Connector // optional
	Now          func() time.Time
	Logger       zerolog.Logger
}

type HTTPHandler struct {
	deps HTTPDeps
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InventoryItemResponse struct {
	domain.InventoryItem
	Sellable        int                `json:"sellable"`
	Status          domain.StockStatus `json:"status"`
	StockPercentage int                `json:"stockPercentage"`
}

type InventoryResponse struct {
	Items      []InventoryItemResponse `json:"items"`
	LastSync   time.Time               `json:"lastSync"`
	AutoUpdate bool                    `json:"autoUpdate"`
}

// QuantityRequest defaults to one unit when quantity is absent.
type QuantityRequest struct {
	Quantity *int `json:"quantity,omitempty"`
}

type OperationResponse struct {
	Success bool                  `json:"success"`
	Item    InventoryItemResponse `json:"item"`
}

type AutoUpdateRequest struct {
	Enabled bool `json:"enabled"`
}

type DispatchRequest struct {
	ItemID         int                `json:"itemId"`
	Type           domain.EventType   `json:"type"`
	PreviousStatus domain.StockStatus `json:"previousStatus"`
	NewStatus      domain.StockStatus `json:"newStatus"`
}

type NotificationsResponse struct {
	Events      []domain.AvailabilityEvent `json:"events"`
	UnreadCount int                        `json:"unreadCount"`
}

type EarningsResponse struct {
	service.EarningsSnapshot
	PendingUSD        decimal.Decimal   `json:"pendingUsd"`
	LastClaimRelative string            `json:"lastClaimRelative"`
	Claim             domain.ClaimState `json:"claim"`
}

type LiveRequest struct {
	Live bool `json:"live"`
}

type PurchaseRequest struct {
	CollectionID int `json:"collectionId"`
}

func NewHTTPHandler(deps HTTPDeps) *HTTPHandler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &HTTPHandler{deps: deps}
}

// Register mounts the API routes on app.
func (h *HTTPHandler) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api")

	inventory := api.Group("/inventory")
	inventory.Get("/", h.ListInventory)
	inventory.Get("/low-stock", h.LowStock)
	inventory.Post("/refresh", h.Refresh)
	inventory.Put("/auto-update", h.SetAutoUpdate)
	inventory.Get("/:id", h.GetItem)
	inventory.Post("/:id/reserve", h.Reserve)
	inventory.Post("/:id/release", h.Release)
	inventory.Post("/:id/confirm", h.Confirm)

	events := api.Group("/events")
	events.Get("/", h.ListEvents)
	events.Post("/", h.DispatchEvent)

	notifications := api.Group("/notifications")
	notifications.Get("/", h.Notifications)
	notifications.Post("/read", h.MarkAsRead)
	notifications.Delete("/", h.ClearNotifications)
	notifications.Get("/toasts", h.Toasts)
	notifications.Delete("/toasts/:id", h.DismissToast)
	notifications.Get("/preferences", h.Preferences)
	notifications.Put("/preferences", h.SetPreferences)

	api.Get("/earnings", h.Earnings)
	api.Put("/earnings/live", h.SetLive)
	api.Post("/rewards/claim", h.Claim)
	api.Delete("/rewards/claim", h.ResetClaim)

	api.Get("/collections", h.Collections)
	api.Get("/purchase", h.PurchaseState)
	api.Post("/purchase", h.Purchase)
	api.Delete("/purchase", h.ResetPurchase)

	wallet := api.Group("/wallet")
	wallet.Get("/", h.Wallet)
	wallet.Post("/connect", h.Connect)
	wallet.Post("/disconnect", h.Disconnect)
	wallet.Delete("/prompt", h.DismissPrompt)
}

func (h *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *HTTPHandler) store() *service.InventoryStore {
	return h.deps.Availability.Store()
}

func (h *HTTPHandler) ListInventory(c *fiber.Ctx) error {
	store := h.store()
	return c.JSON(InventoryResponse{
		Items:      toItemResponses(store.Items()),
		LastSync:   store.LastSync(),
		AutoUpdate: store.AutoUpdate(),
	})
}

func (h *HTTPHandler) LowStock(c *fiber.Ctx) error {
	return c.JSON(toItemResponses(h.store().LowStockItems()))
}

func (h *HTTPHandler) GetItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "invalid item id")
	}
	item, ok := h.store().Get(id)
	if !ok {
		return writeError(c, service.ErrItemNotFound)
	}
	return c.JSON(toItemResponse(item))
}

func (h *HTTPHandler) Reserve(c *fiber.Ctx) error {
	return h.operate(c, h.store().Reserve)
}

func (h *HTTPHandler) Release(c *fiber.Ctx) error {
	return h.operate(c, h.store().Release)
}

func (h *HTTPHandler) Confirm(c *fiber.Ctx) error {
	return h.operate(c, h.store().Confirm)
}

// operate runs a stock operation. A refused operation is 409 with the current item.
func (h *HTTPHandler) operate(c *fiber.Ctx, op func(id, quantity int) bool) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "invalid item id")
	}
	var req QuantityRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	quantity, valid := quantityOrDefault(req.Quantity)
	if !valid {
		return badRequest(c, "quantity must be positive")
	}
	if _, ok := h.store().Get(id); !ok {
		return writeError(c, service.ErrItemNotFound)
	}

	ok := op(id, quantity)
	item, _ := h.store().Get(id)

	status := fiber.StatusOK
	if !ok {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(OperationResponse{Success: ok, Item: toItemResponse(item)})
}

func (h *HTTPHandler) Refresh(c *fiber.Ctx) error {
	if err := h.store().Refresh(c.UserContext()); err != nil {
		h.deps.Logger.Error().Err(err).Msg("refresh inventory")
		return writeError(c, err)
	}
	return h.ListInventory(c)
}

func (h *HTTPHandler) SetAutoUpdate(c *fiber.Ctx) error {
	var req AutoUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	h.store().SetAutoUpdate(req.Enabled)
	return c.JSON(fiber.Map{"autoUpdate": req.Enabled})
}

func (h *HTTPHandler) ListEvents(c *fiber.Ctx) error {
	sink := h.deps.Availability.Sink()

	events := sink.Events()
	if t := c.Query("type"); t != "" {
		events = sink.EventsByType(domain.EventType(t))
	}
	if raw := c.Query("itemId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "invalid itemId")
		}
		events = slices.DeleteFunc(events, func(e domain.AvailabilityEvent) bool { return e.Item.ID != id })
	}
	return c.JSON(events)
}

func (h *HTTPHandler) DispatchEvent(c *fiber.Ctx) error {
	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !slices.Contains(domain.AllEventTypes(), req.Type) {
		return badRequest(c, "unknown event type")
	}
	item, ok := h.store().Get(req.ItemID)
	if !ok {
		return writeError(c, service.ErrItemNotFound)
	}

	event := h.deps.Availability.Sink().Dispatch(item, req.Type, req.PreviousStatus, req.NewStatus)
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *HTTPHandler) Notifications(c *fiber.Ctx) error {
	sink := h.deps.Availability.Sink()
	return c.JSON(NotificationsResponse{Events: sink.Events(), UnreadCount: sink.UnreadCount()})
}

func (h *HTTPHandler) MarkAsRead(c *fiber.Ctx) error {
	h.deps.Availability.Sink().MarkAsRead()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPHandler) ClearNotifications(c *fiber.Ctx) error {
	h.deps.Availability.Sink().Clear()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPHandler) Toasts(c *fiber.Ctx) error {
	return c.JSON(h.deps.Toaster.Visible())
}

func (h *HTTPHandler) DismissToast(c *fiber.Ctx) error {
	if !h.deps.Toaster.Dismiss(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "toast not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPHandler) Preferences(c *fiber.Ctx) error {
	return c.JSON(h.deps.Toaster.Preferences())
}

func (h *HTTPHandler) SetPreferences(c *fiber.Ctx) error {
	var prefs domain.NotificationPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return badRequest(c, "invalid request body")
	}
	h.deps.Toaster.SetPreferences(prefs)
	return c.JSON(prefs)
}

func (h *HTTPHandler) Earnings(c *fiber.Ctx) error {
	snap := h.deps.Earnings.Snapshot()
	return c.JSON(EarningsResponse{
		EarningsSnapshot:  snap,
		PendingUSD:        domain.SolToUSD(snap.Earnings.PendingRewards).Round(2),
		LastClaimRelative: domain.FormatTimestamp(snap.Earnings.LastClaimAt, h.deps.Now()),
		Claim:             domain.NewClaimState(h.deps.Claims.State()),
	})
}

func (h *HTTPHandler) SetLive(c *fiber.Ctx) error {
	var req LiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	h.deps.Earnings.SetLive(req.Live)
	return c.JSON(fiber.Map{"isLive": req.Live})
}

// Claim settles all pending rewards.
func (h *HTTPHandler) Claim(c *fiber.Ctx) error {
	err := h.deps.Claims.Claim(c.UserContext(), h.deps.Earnings.Pending())
	state := domain.NewClaimState(h.deps.Claims.State())
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": errorResponse(err), "claim": state})
	}
	return c.JSON(state)
}

func (h *HTTPHandler) ResetClaim(c *fiber.Ctx) error {
	h.deps.Claims.Reset()
	return c.JSON(domain.NewClaimState(h.deps.Claims.State()))
}

func (h *HTTPHandler) Collections(c *fiber.Ctx) error {
	return c.JSON(h.deps.Purchases.Collections())
}

func (h *HTTPHandler) PurchaseState(c *fiber.Ctx) error {
	return c.JSON(domain.NewPurchaseState(h.deps.Purchases.State()))
}

func (h *HTTPHandler) Purchase(c *fiber.Ctx) error {
	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	collection, err := h.deps.Purchases.Collection(req.CollectionID)
	if err != nil {
		return writeError(c, err)
	}

	_, err = h.deps.Purchases.Purchase(c.UserContext(), collection)
	state := domain.NewPurchaseState(h.deps.Purchases.State())
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": errorResponse(err), "purchase": state})
	}
	return c.JSON(state)
}

func (h *HTTPHandler) ResetPurchase(c *fiber.Ctx) error {
	h.deps.Purchases.Reset()
	return c.JSON(domain.NewPurchaseState(h.deps.Purchases.State()))
}

func (h *HTTPHandler) Wallet(c *fiber.Ctx) error {
	return c.JSON(h.deps.Wallet.Describe(c.UserContext()))
}

func (h *HTTPHandler) Connect(c *fiber.Ctx) error {
	if h.deps.Connector == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(ErrorResponse{Code: "UNSUPPORTED", Message: "wallet cannot be connected from the server"})
	}
	if err := h.deps.Connector.Connect(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "WALLET", Message: err.Error()})
	}
	h.deps.Prompt.Dismiss()
	return h.Wallet(c)
}

func (h *HTTPHandler) Disconnect(c *fiber.Ctx) error {
	if h.deps.Connector != nil {
		h.deps.Connector.Disconnect()
	}
	return h.Wallet(c)
}

func (h *HTTPHandler) DismissPrompt(c *fiber.Ctx) error {
	h.deps.Prompt.Dismiss()
	return c.SendStatus(fiber.StatusNoContent)
}

func toItemResponse(item domain.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		InventoryItem:   item,
		Sellable:        item.Sellable(),
		Status:          item.Status(),
		StockPercentage: item.StockPercentage(),
	}
}

func toItemResponses(items []domain.InventoryItem) []InventoryItemResponse {
	out := make([]InventoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

func quantityOrDefault(q *int) (int, bool) {
	if q == nil {
		return 1, true
	}
	return *q, *q > 0
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrCollectionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrWalletNotConnected):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrBelowMinimumClaim):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrActionInFlight):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(err error) ErrorResponse {
	code := "INTERNAL"
	switch statusFor(err) {
	case fiber.StatusNotFound:
		code = "NOT_FOUND"
	case fiber.StatusUnauthorized:
		code = "WALLET_NOT_CONNECTED"
	case fiber.StatusUnprocessableEntity:
		code = "BELOW_MINIMUM"
	case fiber.StatusConflict:
		code = "IN_FLIGHT"
	}
	return ErrorResponse{Code: code, Message: err.Error()}
}

func writeError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(errorResponse(err))
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: message})
}
