package service

import (
	"context"

	"github.com/Dhoini/storefront-billing/internal/integration/primer"
)

// PaymentGateway определяет операции платежного шлюза, используемые сервисами.
// Реализуется primer.Client; в тестах подменяется заглушкой.
type PaymentGateway interface {
	// CreateClientSession создает клиентскую сессию для чекаута и возвращает client token.
	CreateClientSession(ctx context.Context, req primer.ClientSessionRequest) (string, error)

	// CreatePayment выполняет MIT-списание с сохраненного платежного средства.
	CreatePayment(ctx context.Context, req primer.PaymentRequest) (*primer.PaymentResponse, error)
}
