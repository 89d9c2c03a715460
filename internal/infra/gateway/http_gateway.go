package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fleetride/internal/app/policies"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/money"
)

// HTTPGateway talks to the disbursement provider over its REST API. It
// implements both the payout and the bank verification ports.
type HTTPGateway struct {
	Client    *http.Client
	BaseURL   string
	SecretKey string
	Logger    *slog.Logger
}

type transferRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	Narration     string `json:"narration,omitempty"`
}

type transferResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

type accountResponse struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	Verified      bool   `json:"verified"`
}

func (g *HTTPGateway) InitiatePayout(ctx context.Context, account domainpayout.BankAccount, amount money.Money, reference, narration string) (policies.GatewayResult, error) {
	var zero policies.GatewayResult
	if g == nil || g.Client == nil {
		return zero, errors.New("gateway: http client not configured")
	}
	if g.BaseURL == "" {
		return zero, errors.New("gateway: base url not configured")
	}

	body, err := json.Marshal(transferRequest{
		AccountNumber: account.AccountNumber,
		BankCode:      account.BankCode,
		Amount:        amount.Amount.String(),
		Currency:      amount.Currency,
		Reference:     reference,
		Narration:     narration,
	})
	if err != nil {
		return zero, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")
	if g.SecretKey != "" {
		request.Header.Set("Authorization", "Bearer "+g.SecretKey)
	}

	resp, err := g.Client.Do(request)
	if err != nil {
		g.logError("transfer request failed", reference, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(snippet))
		g.logError("transfer rejected upstream", reference, err)
		return zero, err
	}

	var tr transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		g.logError("transfer decode failed", reference, err)
		return zero, err
	}

	if resp.StatusCode >= http.StatusBadRequest || tr.Status == "failed" {
		msg := tr.Message
		if msg == "" {
			msg = fmt.Sprintf("provider declined transfer with status %d", resp.StatusCode)
		}
		return policies.GatewayResult{Success: false, FailureMessage: msg}, nil
	}
	return policies.GatewayResult{Success: true, ProviderReference: tr.Reference}, nil
}

func (g *HTTPGateway) SettlementAccount(ctx context.Context, fleetOwnerID string) (domainpayout.BankAccount, error) {
	var zero domainpayout.BankAccount
	if g == nil || g.Client == nil {
		return zero, errors.New("gateway: http client not configured")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/v1/settlement-accounts/"+fleetOwnerID, nil)
	if err != nil {
		return zero, err
	}
	if g.SecretKey != "" {
		request.Header.Set("Authorization", "Bearer "+g.SecretKey)
	}

	resp, err := g.Client.Do(request)
	if err != nil {
		g.logError("account lookup failed", fleetOwnerID, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return zero, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var ar accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return zero, err
	}
	return domainpayout.BankAccount{
		AccountName:   ar.AccountName,
		AccountNumber: ar.AccountNumber,
		BankCode:      ar.BankCode,
		BankName:      ar.BankName,
		Verified:      ar.Verified,
	}, nil
}

func (g *HTTPGateway) logError(msg, subject string, err error) {
	if g.Logger == nil {
		return
	}
	g.Logger.Error(msg, "subject", subject, "error", err)
}
