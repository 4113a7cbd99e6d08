package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jportela/comanda/internal/cart"
	"github.com/jportela/comanda/internal/orders"
	"github.com/jportela/comanda/internal/orders/memory"
	"github.com/jportela/comanda/internal/session"
)

func newServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	handler := NewHandler(
		cart.New(nil),
		session.New(nil),
		orders.NewService(store),
	)
	return NewRouter(handler), store
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func login(t *testing.T, router http.Handler) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/session/login", LoginRequest{Badge: "42", Name: "J. Silva"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, router, http.MethodPost, "/session", StartServiceRequest{Table: "3", PartySize: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func margherita(quantity int) LineItemDTO {
	return LineItemDTO{
		ProductID:    1,
		Kind:         "pizza",
		Name:         "Margherita",
		Quantity:     quantity,
		UnitPrice:    30,
		StuffedCrust: "catupiry",
	}
}

func TestServiceFlow_FinalizeAndDeliver(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	rec := do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusOK, rec.Code)
	cartResp := decode[CartResponse](t, rec)
	assert.Equal(t, 1, cartResp.TotalItemCount)
	assert.InDelta(t, 30, cartResp.TotalValue, 1e-9)

	rec = do(t, router, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[OrderResponse](t, rec)
	assert.Equal(t, "3", order.Table)
	assert.Equal(t, "42", order.AttendantBadge)
	assert.Equal(t, "pending", order.Status)
	assert.InDelta(t, 30, order.TotalValue, 1e-9)
	require.Len(t, order.Items, 1)

	// Finalize emptied the cart.
	rec = do(t, router, http.MethodGet, "/cart", nil)
	cartResp = decode[CartResponse](t, rec)
	assert.Zero(t, cartResp.TotalItemCount)

	rec = do(t, router, http.MethodGet, "/orders?view=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]OrderResponse](t, rec)
	require.Len(t, pending, 1)

	rec = do(t, router, http.MethodPost, "/orders/"+order.ID+"/delivered", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	delivered := decode[OrderResponse](t, rec)
	assert.Equal(t, "delivered", delivered.Status)
	assert.NotEmpty(t, delivered.CompletedAt)

	rec = do(t, router, http.MethodGet, "/orders?view=delivered", nil)
	history := decode[[]OrderResponse](t, rec)
	require.Len(t, history, 1)

	rec = do(t, router, http.MethodGet, "/orders?view=pending", nil)
	pending = decode[[]OrderResponse](t, rec)
	assert.Empty(t, pending)
}

func TestCartEndpoints_UpdateAndRemove(t *testing.T) {
	router, _ := newServer(t)

	rec := do(t, router, http.MethodPost, "/cart/items", margherita(2))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, "/cart/items/pizza/1", UpdateQuantityRequest{Quantity: 5})
	cartResp := decode[CartResponse](t, rec)
	assert.Equal(t, 5, cartResp.TotalItemCount)

	rec = do(t, router, http.MethodDelete, "/cart/items/pizza/1", nil)
	cartResp = decode[CartResponse](t, rec)
	assert.Empty(t, cartResp.Items)
}

func TestFinalize_EmptyCartRejected(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	rec := do(t, router, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "empty_cart", resp.Error)
}

func TestFinalize_WithoutSessionRejected(t *testing.T) {
	router, _ := newServer(t)

	rec := do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "missing_context", resp.Error)
}

func TestDeliver_TerminalOrderConflicts(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	order := decode[OrderResponse](t, do(t, router, http.MethodPost, "/orders", nil))

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/orders/"+order.ID+"/delivered", nil).Code)

	rec := do(t, router, http.MethodPost, "/orders/"+order.ID+"/delivered", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_transition", resp.Error)
}

func TestGetOrder_Unknown(t *testing.T) {
	router, _ := newServer(t)

	rec := do(t, router, http.MethodGet, "/orders/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTables_GroupedViewAndBulkFinalize(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	// Two orders for table 3.
	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/orders", nil).Code)
	do(t, router, http.MethodPost, "/cart/items", margherita(2))
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/orders", nil).Code)

	rec := do(t, router, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tables := decode[[]TableSummaryResponse](t, rec)
	require.Len(t, tables, 1)
	assert.Equal(t, "3", tables[0].Table)
	assert.Equal(t, 2, tables[0].OrderCount)
	assert.Equal(t, 3, tables[0].TotalItemCount)
	assert.InDelta(t, 90, tables[0].TotalValue, 1e-9)

	rec = do(t, router, http.MethodPost, "/tables/3/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[FinalizeTableResponse](t, rec)
	assert.Len(t, result.Delivered, 2)
	assert.Empty(t, result.Failed)

	rec = do(t, router, http.MethodGet, "/tables", nil)
	tables = decode[[]TableSummaryResponse](t, rec)
	assert.Empty(t, tables)

	// Finalizing the table the session was serving ends the service.
	sess := decode[SessionResponse](t, do(t, router, http.MethodGet, "/session", nil))
	assert.Nil(t, sess.Service)
	assert.NotNil(t, sess.Attendant)
}

func TestResumeTable_RebindsSessionAndClearsCart(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/orders", nil).Code)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	rec := do(t, router, http.MethodPost, "/tables/3/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[SessionResponse](t, rec)
	require.NotNil(t, sess.Service)
	assert.Equal(t, "3", sess.Service.Table)
	assert.Equal(t, 2, sess.Service.PartySize)

	cartResp := decode[CartResponse](t, do(t, router, http.MethodGet, "/cart", nil))
	assert.Zero(t, cartResp.TotalItemCount)
}

func TestFinalizeTable_UnknownTable(t *testing.T) {
	router, _ := newServer(t)

	rec := do(t, router, http.MethodPost, "/tables/99/finalize", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders_UnknownView(t *testing.T) {
	router, _ := newServer(t)

	rec := do(t, router, http.MethodGet, "/orders?view=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_StartsSpanPerRequest(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	router, _ := newServer(t)
	rec := do(t, router, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /cart", span.Name())
	assert.True(t, span.SpanContext().HasTraceID())
	assert.True(t, span.SpanContext().HasSpanID())

	var status int
	for _, attr := range span.Attributes() {
		if attr.Key == "http.status_code" {
			status = int(attr.Value.AsInt64())
		}
	}
	assert.Equal(t, http.StatusOK, status)
}

func TestListOrders_FailedReloadServesStaleView(t *testing.T) {
	router, store := newServer(t)
	login(t, router)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/orders", nil).Code)

	store.FailOp = "list"
	store.FailNext = errors.New("store unreachable")

	rec := do(t, router, http.MethodGet, "/orders?view=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Stale"))
	pending := decode[[]OrderResponse](t, rec)
	assert.Len(t, pending, 1)

	// Once the store answers again the view is fresh and unmarked.
	rec = do(t, router, http.MethodGet, "/orders?view=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Stale"))
}

func TestListTables_FailedReloadServesStaleView(t *testing.T) {
	router, store := newServer(t)
	login(t, router)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/orders", nil).Code)

	store.FailOp = "list"
	store.FailNext = errors.New("store unreachable")

	rec := do(t, router, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Stale"))
	tables := decode[[]TableSummaryResponse](t, rec)
	assert.Len(t, tables, 1)
}

func TestStartService_ClearsCart(t *testing.T) {
	router, _ := newServer(t)
	login(t, router)

	do(t, router, http.MethodPost, "/cart/items", margherita(1))
	rec := do(t, router, http.MethodPost, "/session", StartServiceRequest{Table: "9", PartySize: 4})
	require.Equal(t, http.StatusCreated, rec.Code)

	cartResp := decode[CartResponse](t, do(t, router, http.MethodGet, "/cart", nil))
	assert.Zero(t, cartResp.TotalItemCount)
}
