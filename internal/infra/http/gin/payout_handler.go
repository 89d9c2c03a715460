package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fleetride/internal/app/commands"
	payoutapp "fleetride/internal/app/handlers/payout"
	"fleetride/internal/domain/shared/money"
)

type PayoutHandler struct {
	Commands commands.Bus
	Currency string
}

type initiatePayoutRequest struct {
	FleetOwnerID string `json:"fleet_owner_id" binding:"required"`
	BookingID    string `json:"booking_id"`
	ExtensionID  string `json:"extension_id"`
	Amount       string `json:"amount" binding:"required"`
	Narration    string `json:"narration"`
}

func (h PayoutHandler) Initiate(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req initiatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := money.New(d, h.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := payoutapp.InitiatePayoutCommand{
		CommandID:       generateCommandID(),
		FleetOwnerID:    req.FleetOwnerID,
		BookingID:       req.BookingID,
		ExtensionID:     req.ExtensionID,
		Amount:          amount,
		Narration:       req.Narration,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[payoutapp.InitiatePayoutCommand, *payoutapp.InitiatePayoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

type retryPayoutRequest struct {
	Narration string `json:"narration"`
}

func (h PayoutHandler) Retry(c *gin.Context) {
	var req retryPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := payoutapp.RetryPayoutCommand{PayoutID: c.Param("id"), Narration: req.Narration}
	result, err := commands.Dispatch[payoutapp.RetryPayoutCommand, *payoutapp.RetryPayoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// payoutWebhookRequest is the provider's transfer status callback.
type payoutWebhookRequest struct {
	PayoutID      string `json:"payout_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
	FailureReason string `json:"failure_reason"`
}

func (h PayoutHandler) Webhook(c *gin.Context) {
	var req payoutWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := payoutapp.SettlePayoutCommand{
		PayoutID:      req.PayoutID,
		Succeeded:     req.Status == "success",
		FailureReason: req.FailureReason,
	}
	result, err := commands.Dispatch[payoutapp.SettlePayoutCommand, *payoutapp.SettlePayoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PayoutHTTP = PayoutHandler{}
