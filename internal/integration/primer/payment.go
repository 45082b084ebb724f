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

// PaymentType тип инициирования платежа
const (
	// PaymentTypeMerchantInitiated MIT-платеж: списание с сохраненного
	// платежного средства без участия клиента
	PaymentTypeMerchantInitiated = "MERCHANT_INITIATED"
)

// PaymentRequest запрос на создание платежа в Primer
type PaymentRequest struct {
	OrderID            string `json:"orderId"`
	Amount             int64  `json:"amount"`
	CurrencyCode       string `json:"currencyCode"`
	PaymentMethodToken string `json:"paymentMethodToken"`
	PaymentType        string `json:"paymentType"`
	Customer           struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PaymentResponse ответ Primer на создание платежа
type PaymentResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreatePayment выполняет MIT-списание с сохраненного платежного средства.
// Non-2xx ответ и непарсящееся тело одинаково считаются неудачей платежа.
func (c *Client) CreatePayment(ctx context.Context, reqBody PaymentRequest) (*PaymentResponse, error) {
	if c.apiKey == "" {
		return nil, domain.ErrAPIKeyNotConfigured
	}

	c.log.Debug("Creating Primer MIT payment for order %s", reqBody.OrderID)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewGatewayError("payments", "request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewGatewayError("payments", "failed to read response body", resp.StatusCode, err)
	}

	var paymentResp PaymentResponse
	if err := json.Unmarshal(body, &paymentResp); err != nil {
		return nil, domain.NewGatewayError("payments", "failed to parse response: "+string(body), resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := paymentResp.Message
		if message == "" {
			message = "unknown error"
		}
		return nil, domain.NewGatewayError("payments", "payment failed: "+message, resp.StatusCode, domain.ErrPaymentFailed)
	}

	c.log.Info("Primer payment created: id=%s status=%s order=%s", paymentResp.ID, paymentResp.Status, reqBody.OrderID)
	return &paymentResp, nil
}
