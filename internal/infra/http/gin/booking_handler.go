package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fleetride/internal/app/commands"
	bookingapp "fleetride/internal/app/handlers/booking"
	"fleetride/internal/app/queries"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/money"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
}

type createBookingRequest struct {
	Kind                  string    `json:"kind" binding:"required"`
	Start                 time.Time `json:"start" binding:"required"`
	End                   time.Time `json:"end" binding:"required"`
	PickupAddress         string    `json:"pickup_address" binding:"required"`
	DropOffAddress        string    `json:"drop_off_address"`
	CustomerID            string    `json:"customer_id" binding:"required"`
	CarID                 string    `json:"car_id" binding:"required"`
	SpecialRequests       string    `json:"special_requests"`
	TotalAmount           string    `json:"total_amount" binding:"required"`
	NetTotal              string    `json:"net_total" binding:"required"`
	PlatformServiceFee    string    `json:"platform_service_fee"`
	VATAmount             string    `json:"vat_amount"`
	SecurityDetailCost    string    `json:"security_detail_cost"`
	IncludeSecurityDetail bool      `json:"include_security_detail"`
	DailyPrice            string    `json:"daily_price" binding:"required"`
	DailyNetValue         string    `json:"daily_net_value"`
	DailyOwnerEarning     string    `json:"daily_owner_earning"`
}

func (h BookingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amounts, err := h.parseAmounts(
		req.TotalAmount, req.NetTotal, req.PlatformServiceFee, req.VATAmount,
		req.SecurityDetailCost, req.DailyPrice, req.DailyNetValue, req.DailyOwnerEarning,
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := bookingapp.CreateBookingCommand{
		CommandID:             generateCommandID(),
		Kind:                  period.Kind(req.Kind),
		Start:                 req.Start,
		End:                   req.End,
		PickupAddress:         req.PickupAddress,
		DropOffAddress:        req.DropOffAddress,
		CustomerID:            req.CustomerID,
		CarID:                 req.CarID,
		SpecialRequests:       req.SpecialRequests,
		TotalAmount:           amounts[0],
		NetTotal:              amounts[1],
		PlatformServiceFee:    amounts[2],
		VATAmount:             amounts[3],
		SecurityDetailCost:    amounts[4],
		IncludeSecurityDetail: req.IncludeSecurityDetail,
		DailyPricing: domainbooking.LegPricing{
			TotalDailyPrice:   amounts[5],
			ItemsNetValue:     amounts[6],
			FleetOwnerEarning: amounts[7],
		},
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := bookingapp.GetBookingQuery{BookingID: c.Param("id")}
	view, err := queries.Ask[bookingapp.GetBookingQuery, *bookingapp.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type confirmBookingRequest struct {
	PaymentID string `json:"payment_id"`
}

func (h BookingHandler) Confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.ConfirmBookingCommand{BookingID: c.Param("id"), PaymentID: req.PaymentID}
	result, err := commands.Dispatch[bookingapp.ConfirmBookingCommand, *bookingapp.ConfirmBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason, Force: req.Force}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Progress(c *gin.Context) {
	cmd := bookingapp.ProgressBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.ProgressBookingCommand, *bookingapp.ProgressBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type assignChauffeurRequest struct {
	ChauffeurID  string `json:"chauffeur_id" binding:"required"`
	FleetOwnerID string `json:"fleet_owner_id"`
	AssignedBy   string `json:"assigned_by"`
}

func (h BookingHandler) AssignChauffeur(c *gin.Context) {
	var req assignChauffeurRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.AssignChauffeurCommand{
		BookingID:    c.Param("id"),
		ChauffeurID:  req.ChauffeurID,
		FleetOwnerID: req.FleetOwnerID,
		AssignedBy:   req.AssignedBy,
	}
	result, err := commands.Dispatch[bookingapp.AssignChauffeurCommand, *bookingapp.ChauffeurResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type unassignChauffeurRequest struct {
	FleetOwnerID string `json:"fleet_owner_id"`
	UnassignedBy string `json:"unassigned_by"`
	Reason       string `json:"reason"`
}

func (h BookingHandler) UnassignChauffeur(c *gin.Context) {
	var req unassignChauffeurRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.UnassignChauffeurCommand{
		BookingID:    c.Param("id"),
		FleetOwnerID: req.FleetOwnerID,
		UnassignedBy: req.UnassignedBy,
		Reason:       req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.UnassignChauffeurCommand, *bookingapp.ChauffeurResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseAmounts converts request strings to money, treating blanks as zero.
func (h BookingHandler) parseAmounts(raws ...string) ([]money.Money, error) {
	out := make([]money.Money, len(raws))
	for i, raw := range raws {
		if raw == "" {
			raw = "0"
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		m, err := money.NewNonNegative(d, h.Currency)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
