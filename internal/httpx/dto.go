package httpx

import (
	"time"

	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/orders"
	"github.com/jportela/comanda/internal/session"
)

type LineItemDTO struct {
	ProductID    int      `json:"product_id"`
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	UnitPrice    float64  `json:"unit_price"`
	Note         string   `json:"note,omitempty"`
	StuffedCrust string   `json:"stuffed_crust,omitempty"`
	AddOns       []string `json:"add_ons,omitempty"`
}

type CartResponse struct {
	Items          []LineItemDTO `json:"items"`
	TotalItemCount int           `json:"total_item_count"`
	TotalValue     float64       `json:"total_value"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type LoginRequest struct {
	Badge string `json:"badge"`
	Name  string `json:"name"`
}

type StartServiceRequest struct {
	Table     string `json:"table"`
	PartySize int    `json:"party_size"`
}

type ResumeTableRequest struct {
	// PartySize below 1 keeps the current service's value.
	PartySize int `json:"party_size"`
}

type AttendantDTO struct {
	SessionID string `json:"session_id"`
	Badge     string `json:"badge"`
	Name      string `json:"name"`
}

type ServiceDTO struct {
	Table     string `json:"table"`
	PartySize int    `json:"party_size"`
}

type SessionResponse struct {
	Attendant *AttendantDTO `json:"attendant,omitempty"`
	Service   *ServiceDTO   `json:"service,omitempty"`
}

type OrderResponse struct {
	ID             string        `json:"id"`
	Table          string        `json:"table"`
	AttendantBadge string        `json:"attendant_badge"`
	AttendantName  string        `json:"attendant_name"`
	PartySize      int           `json:"party_size"`
	Items          []LineItemDTO `json:"items"`
	TotalValue     float64       `json:"total_value"`
	CreatedAt      string        `json:"created_at"`
	Status         string        `json:"status"`
	CompletedAt    string        `json:"completed_at,omitempty"`
}

type TableSummaryResponse struct {
	Table          string   `json:"table"`
	OrderCount     int      `json:"order_count"`
	TotalItemCount int      `json:"total_item_count"`
	TotalValue     float64  `json:"total_value"`
	OrderIDs       []string `json:"order_ids"`
}

type FinalizeTableResponse struct {
	Table     string            `json:"table"`
	Delivered []string          `json:"delivered"`
	Failed    map[string]string `json:"failed,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapItem(it domain.LineItem) LineItemDTO {
	return LineItemDTO{
		ProductID:    it.ProductID,
		Kind:         string(it.Kind),
		Name:         it.Name,
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
		Note:         it.Note,
		StuffedCrust: it.StuffedCrust,
		AddOns:       it.AddOns,
	}
}

func mapItems(items []domain.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for n, it := range items {
		out[n] = mapItem(it)
	}
	return out
}

func (r LineItemDTO) toDomain() domain.LineItem {
	return domain.LineItem{
		ProductID:    r.ProductID,
		Kind:         domain.ProductKind(r.Kind),
		Name:         r.Name,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Note:         r.Note,
		StuffedCrust: r.StuffedCrust,
		AddOns:       r.AddOns,
	}
}

func mapOrder(o *domain.Order) OrderResponse {
	out := OrderResponse{
		ID:             o.ID,
		Table:          o.Table,
		AttendantBadge: o.AttendantBadge,
		AttendantName:  o.AttendantName,
		PartySize:      o.PartySize,
		Items:          mapItems(o.Items),
		TotalValue:     o.TotalValue,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339Nano),
		Status:         string(o.Status),
	}
	if o.CompletedAt != nil {
		out.CompletedAt = o.CompletedAt.Format(time.RFC3339Nano)
	}
	return out
}

func mapOrders(list []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(list))
	for n, o := range list {
		out[n] = mapOrder(o)
	}
	return out
}

func mapTable(sum orders.TableSummary) TableSummaryResponse {
	ids := make([]string, len(sum.Orders))
	for n, o := range sum.Orders {
		ids[n] = o.ID
	}
	return TableSummaryResponse{
		Table:          sum.Table,
		OrderCount:     sum.OrderCount,
		TotalItemCount: sum.TotalItemCount,
		TotalValue:     sum.TotalValue,
		OrderIDs:       ids,
	}
}

func mapAttendant(a *session.Attendant) *AttendantDTO {
	if a == nil {
		return nil
	}
	return &AttendantDTO{SessionID: a.SessionID, Badge: a.Badge, Name: a.Name}
}

func mapService(s *session.Service) *ServiceDTO {
	if s == nil {
		return nil
	}
	return &ServiceDTO{Table: s.Table, PartySize: s.PartySize}
}
