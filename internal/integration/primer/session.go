package primer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Dhoini/storefront-billing/internal/domain"
)

// LineItem позиция заказа в клиентской сессии
type LineItem struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	Quantity    int    `json:"quantity"`
}

// ClientSessionRequest запрос на создание клиентской сессии Primer
type ClientSessionRequest struct {
	OrderID      string `json:"orderId"`
	CurrencyCode string `json:"currencyCode"`
	Amount       int64  `json:"amount"`
	Order        struct {
		CountryCode string     `json:"countryCode"`
		LineItems   []LineItem `json:"lineItems"`
	} `json:"order"`
	Customer struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ClientSessionResponse ответ Primer на создание клиентской сессии
type ClientSessionResponse struct {
	ClientToken string `json:"clientToken"`
}

// CreateClientSession создает клиентскую сессию для чекаута и возвращает client token
func (c *Client) CreateClientSession(ctx context.Context, reqBody ClientSessionRequest) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrAPIKeyNotConfigured
	}

	c.log.Debug("Creating Primer client session for order %s (api key %s)", reqBody.OrderID, maskAPIKey(c.apiKey))

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal client session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/client-session", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewGatewayError("client-session", "request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewGatewayError("client-session", "failed to read response body", resp.StatusCode, err)
	}

	var sessionResp ClientSessionResponse
	if err := json.Unmarshal(body, &sessionResp); err != nil {
		return "", domain.NewGatewayError("client-session", "failed to parse response: "+string(body), resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewGatewayError("client-session", string(body), resp.StatusCode, nil)
	}

	if sessionResp.ClientToken == "" {
		return "", domain.NewGatewayError("client-session", "client token missing in response", resp.StatusCode, nil)
	}

	c.log.Info("Successfully created Primer client session for order %s", reqBody.OrderID)
	return sessionResp.ClientToken, nil
}
