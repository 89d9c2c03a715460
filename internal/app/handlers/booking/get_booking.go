package booking

import (
	"context"
	"time"

	"fleetride/internal/app/queries"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

// BookingView is the read-model shape handed to the HTTP boundary. Monetary
// fields are rounded to display precision here and nowhere earlier.
type BookingView struct {
	ID              string     `json:"id"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	PeriodKind      string     `json:"period_kind"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationHours   float64    `json:"duration_hours"`
	PickupAddress   string     `json:"pickup_address"`
	DropOffAddress  string     `json:"drop_off_address"`
	CustomerID      string     `json:"customer_id"`
	CarID           string     `json:"car_id"`
	ChauffeurID     string     `json:"chauffeur_id,omitempty"`
	TotalAmount     string     `json:"total_amount"`
	Currency        string     `json:"currency"`
	Legs            []LegView  `json:"legs"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelReason    string     `json:"cancellation_reason,omitempty"`
	SpecialRequests string     `json:"special_requests,omitempty"`
}

type LegView struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	DurationHours float64   `json:"duration_hours"`
	DailyPrice    string    `json:"daily_price"`
}

type GetBookingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*BookingView, error) {
	unit, ctx, managed, err := acquireUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	view := &BookingView{
		ID:              string(b.ID),
		Reference:       b.Reference,
		Status:          b.Status.String(),
		PaymentStatus:   string(b.PaymentStatus),
		PeriodKind:      string(b.Period.Kind()),
		Start:           b.Period.Start(),
		End:             b.Period.End(),
		DurationHours:   b.DurationHours(),
		PickupAddress:   b.PickupAddress,
		DropOffAddress:  b.DropOffAddress,
		CustomerID:      b.CustomerID,
		CarID:           b.CarID,
		ChauffeurID:     b.ChauffeurID,
		TotalAmount:     b.Financials.TotalAmount.Display().String(),
		Currency:        b.Financials.TotalAmount.Currency,
		SpecialRequests: b.SpecialRequests,
		CancelReason:    b.CancellationReason,
	}
	if !b.CancelledAt.IsZero() {
		at := b.CancelledAt
		view.CancelledAt = &at
	}
	for _, leg := range b.Legs {
		view.Legs = append(view.Legs, LegView{
			ID:            leg.ID,
			Date:          leg.Date,
			StartTime:     leg.StartTime,
			EndTime:       leg.EndTime,
			Status:        string(leg.Status),
			DurationHours: leg.DurationHours(),
			DailyPrice:    leg.TotalDailyPrice.Display().String(),
		})
	}
	return view, nil
}

var _ queries.Handler[GetBookingQuery, *BookingView] = (*GetBookingHandler)(nil)
