// Package httpx is the presentation adapter: it exposes the cart, session
// and order core to the screens over local HTTP. It owns no business rules;
// every operation delegates to the core and maps its errors to status codes.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/jportela/comanda/internal/cart"
	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/orders"
	"github.com/jportela/comanda/internal/session"
)

// Handler serves the presentation API. The core assumes a single logical
// actor, so a mutex serializes requests; the HTTP server may be concurrent
// but the order core never sees it.
type Handler struct {
	mu      sync.Mutex
	cart    *cart.Cart
	session *session.Manager
	orders  *orders.Service
}

// NewHandler wires the three core collaborators into one API surface.
func NewHandler(c *cart.Cart, sm *session.Manager, svc *orders.Service) *Handler {
	return &Handler{cart: c, session: sm, orders: svc}
}

// ── session ──

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	a, err := h.session.Login(r.Context(), req.Badge, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "login_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Attendant: mapAttendant(a)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "logout_failed", err.Error())
		return
	}
	h.cart.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	writeJSON(w, http.StatusOK, SessionResponse{
		Attendant: mapAttendant(h.session.Attendant()),
		Service:   mapService(h.session.Service()),
	})
}

func (h *Handler) StartService(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req StartServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	s, err := h.session.StartService(r.Context(), req.Table, req.PartySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_service_failed", err.Error())
		return
	}
	// Starting a fresh table always begins from an empty cart.
	h.cart.Clear(r.Context())
	writeJSON(w, http.StatusCreated, SessionResponse{
		Attendant: mapAttendant(h.session.Attendant()),
		Service:   mapService(s),
	})
}

// ── cart ──

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeCart(w)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req LineItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.cart.Add(r.Context(), req.toDomain())
	h.writeCart(w)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	productID, kind, ok := itemParams(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	h.cart.UpdateQuantity(r.Context(), productID, kind, req.Quantity)
	h.writeCart(w)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	productID, kind, ok := itemParams(w, r)
	if !ok {
		return
	}
	h.cart.Remove(r.Context(), productID, kind)
	h.writeCart(w)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cart.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ── orders ──

func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fc := orders.FinalizeContext{}
	if a := h.session.Attendant(); a != nil {
		fc.AttendantBadge = a.Badge
		fc.AttendantName = a.Name
	}
	if s := h.session.Service(); s != nil {
		fc.Table = s.Table
		fc.PartySize = s.PartySize
	}

	order, err := h.orders.Finalize(r.Context(), h.cart, fc)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch view := r.URL.Query().Get("view"); view {
	case "", "pending":
		if err := h.orders.Reload(r.Context()); err != nil {
			// Stale-but-available: serve the previous cache and say so.
			slog.WarnContext(r.Context(), "pending view served stale", "error", err)
			w.Header().Set("X-Stale", "true")
		}
		writeJSON(w, http.StatusOK, mapOrders(h.orders.Pending()))
	case "delivered":
		list, err := h.orders.ListDelivered(r.Context())
		if err != nil {
			writeCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapOrders(list))
	default:
		writeError(w, http.StatusBadRequest, "unknown_view", "view must be pending or delivered")
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) StartPreparation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.StartPreparation)
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkDelivered)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel)
}

// ── tables ──

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.orders.Reload(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "table view served stale", "error", err)
		w.Header().Set("X-Stale", "true")
	}
	summaries := h.orders.Tables()
	out := make([]TableSummaryResponse, len(summaries))
	for n, sum := range summaries {
		out[n] = mapTable(sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) FinalizeTable(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	table := chi.URLParam(r, "table")
	result, err := h.orders.FinalizeTable(r.Context(), table)
	if err != nil && result == nil {
		writeCoreError(w, r, err)
		return
	}

	resp := FinalizeTableResponse{Table: result.Table, Delivered: result.Delivered}
	if len(result.Failed) > 0 {
		resp.Failed = make(map[string]string, len(result.Failed))
		for id, ferr := range result.Failed {
			resp.Failed[id] = ferr.Error()
		}
		// Mixed state must be explicit: some orders are delivered, some are
		// not, and nothing is rolled back.
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}

	// A fully finalized table ends the service bound to it.
	if s := h.session.Service(); s != nil && s.Table == table {
		if err := h.session.EndService(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "end service after table finalize failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResumeTable rebinds the session to a table that already has open orders
// so the attendant can add more items to it. The cart starts empty; the
// previous orders of the table stay as they are.
func (h *Handler) ResumeTable(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req ResumeTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	s, err := h.session.ResumeTable(r.Context(), chi.URLParam(r, "table"), req.PartySize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "resume_failed", err.Error())
		return
	}
	h.cart.Clear(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{
		Attendant: mapAttendant(h.session.Attendant()),
		Service:   mapService(s),
	})
}

// ── helpers ──

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeCoreError(w, r, err)
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) writeCart(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, CartResponse{
		Items:          mapItems(h.cart.Items()),
		TotalItemCount: h.cart.TotalItemCount(),
		TotalValue:     h.cart.TotalValue(),
	})
}

func itemParams(w http.ResponseWriter, r *http.Request) (int, domain.ProductKind, bool) {
	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
		return 0, "", false
	}
	return productID, domain.ProductKind(chi.URLParam(r, "kind")), true
}

// writeCoreError maps the core error taxonomy to HTTP statuses. The split
// the clients care about: 4xx means nothing happened, 5xx means the store
// misbehaved (and still nothing happened, for single-record operations).
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *domain.InvalidTransitionError
	var persistence *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, domain.ErrMissingContext):
		writeError(w, http.StatusUnprocessableEntity, "missing_context", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.As(err, &persistence):
		slog.ErrorContext(r.Context(), "store failure", "error", err)
		writeError(w, http.StatusInternalServerError, "persistence_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
