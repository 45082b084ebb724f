package domain

// Типы событий вебхуков Primer
const (
	// WebhookEventTypePaymentSuccess единственный тип события, который обрабатывается.
	// Остальные типы подтверждаются (200), но игнорируются.
	WebhookEventTypePaymentSuccess = "PAYMENT.SUCCESS"
)

// Значения-заглушки для опциональных полей payload
const (
	// FallbackCustomerEmail подставляется, когда email не найден ни в одном известном месте
	FallbackCustomerEmail = "unknown@example.com"

	// FallbackProductIdentifier подставляется, когда не найден ни product id, ни order id
	FallbackProductIdentifier = "default-product"
)

// WebhookPayment представляет объект платежа из payload вебхука Primer.
// Схема payload не контролируется нашей системой: одни и те же поля
// приходят то в camelCase, то в snake_case, поэтому для каждого поля
// перечислены все известные варианты.
type WebhookPayment struct {
	ID string `json:"id"`

	OrderID      string `json:"orderId"`
	OrderIDSnake string `json:"order_id"`

	PaymentMethodToken      string `json:"paymentMethodToken"`
	PaymentMethodTokenSnake string `json:"payment_method_token"`

	Customer *struct {
		Email string `json:"email"`
	} `json:"customer"`
	CustomerEmail  string `json:"customerEmail"`
	BillingAddress *struct {
		Email string `json:"email"`
	} `json:"billing_address"`

	Metadata map[string]interface{} `json:"metadata"`
}

// WebhookEvent представляет событие вебхука Primer.
// Объект платежа может лежать как на верхнем уровне, так и внутри data.
type WebhookEvent struct {
	Type      string `json:"type"`
	EventType string `json:"eventType"`
	ID        string `json:"id"`

	Data *struct {
		Payment *WebhookPayment `json:"payment"`
	} `json:"data"`
	Payment *WebhookPayment `json:"payment"`
}

// Kind возвращает тип события с учетом обоих известных полей
func (e *WebhookEvent) Kind() string {
	if e.Type != "" {
		return e.Type
	}
	return e.EventType
}

// PaymentObject возвращает объект платежа из любого известного расположения
func (e *WebhookEvent) PaymentObject() *WebhookPayment {
	if e.Data != nil && e.Data.Payment != nil {
		return e.Data.Payment
	}
	return e.Payment
}

// Order возвращает идентификатор заказа с учетом обоих вариантов имени поля
func (p *WebhookPayment) Order() string {
	if p.OrderID != "" {
		return p.OrderID
	}
	return p.OrderIDSnake
}

// Token возвращает токен платежного средства.
// Токен обязателен: без него MIT-списание невозможно, событие не может быть обработано.
func (p *WebhookPayment) Token() (string, error) {
	if p.PaymentMethodToken != "" {
		return p.PaymentMethodToken, nil
	}
	if p.PaymentMethodTokenSnake != "" {
		return p.PaymentMethodTokenSnake, nil
	}
	return "", ErrPaymentTokenMissing
}

// Email возвращает email клиента. Порядок поиска фиксирован:
// customer.email, затем customerEmail, затем billing_address.email.
// Если email нигде нет, возвращается значение-заглушка.
func (p *WebhookPayment) Email() string {
	if p.Customer != nil && p.Customer.Email != "" {
		return p.Customer.Email
	}
	if p.CustomerEmail != "" {
		return p.CustomerEmail
	}
	if p.BillingAddress != nil && p.BillingAddress.Email != "" {
		return p.BillingAddress.Email
	}
	return FallbackCustomerEmail
}

// ProductIdentifier возвращает идентификатор продукта. Порядок поиска фиксирован:
// metadata.product_id, затем metadata.productId, затем order id, затем заглушка.
func (p *WebhookPayment) ProductIdentifier() string {
	if v, ok := p.Metadata["product_id"].(string); ok && v != "" {
		return v
	}
	if v, ok := p.Metadata["productId"].(string); ok && v != "" {
		return v
	}
	if order := p.Order(); order != "" {
		return order
	}
	return FallbackProductIdentifier
}
