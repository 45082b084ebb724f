package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	// SubscriptionStatusPendingInitial подписка создана, но первое списание еще не подтверждено.
	// Для процессора биллинга эквивалентна active.
	SubscriptionStatusPendingInitial SubscriptionStatus = "pending_initial"

	// SubscriptionStatusActive подписка активна и подлежит периодическому списанию
	SubscriptionStatusActive SubscriptionStatus = "active"

	// SubscriptionStatusCharging подписка захвачена процессором биллинга на время попытки списания.
	// Переход выполняется атомарным conditional update, чтобы параллельные запуски
	// процессора не списали деньги дважды.
	SubscriptionStatusCharging SubscriptionStatus = "charging"

	// SubscriptionStatusFailed последняя попытка списания завершилась неудачей
	SubscriptionStatusFailed SubscriptionStatus = "failed"
)

// Billable сообщает, подлежит ли подписка списанию в данном статусе
func (s SubscriptionStatus) Billable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusPendingInitial
}

// Subscription представляет собой модель подписки
type Subscription struct {
	// SubscriptionID уникальный идентификатор, назначается один раз при создании
	SubscriptionID uuid.UUID `json:"subscription_id"`

	// CustomerEmail email плательщика; уникальность не требуется,
	// у клиента может быть несколько подписок
	CustomerEmail string `json:"customer_email"`

	// ProductIdentifier ключ оплачиваемого продукта (без FK-связи)
	ProductIdentifier string `json:"product_identifier"`

	Status SubscriptionStatus `json:"status"`

	// NextBillingDate календарная дата следующего списания (без времени суток).
	// Двигается только вперед и только после того, как известен результат попытки.
	NextBillingDate time.Time `json:"next_billing_date"`

	// PrimerPaymentMethodToken токен сохраненного платежного средства,
	// необходим для MIT-списаний; неизменяем после установки
	PrimerPaymentMethodToken string `json:"primer_payment_method_token"`

	// PaymentID идентификатор платежа в шлюзе, породившего подписку.
	// Служит ключом идемпотентности: повторная доставка того же вебхука
	// не создает вторую подписку.
	PaymentID string `json:"payment_id"`

	// Снимок цены, зафиксированный при создании подписки.
	// Последующие изменения цены продукта не затрагивают существующие подписки.
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CycleDays   int    `json:"cycle_days"`

	// FailureReason причина последней неудачной попытки списания
	FailureReason string `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateOnly обрезает время до календарной даты в UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueOn сообщает, подлежит ли подписка списанию на указанную дату
func (s *Subscription) DueOn(date time.Time) bool {
	return s.Status.Billable() && !DateOnly(s.NextBillingDate).After(DateOnly(date))
}

// AdvanceBillingDate сдвигает дату следующего списания на длину цикла
// вперед от даты запуска процессора, а не от старой даты. Пропущенные
// циклы не накапливаются: просроченная подписка после успешного списания
// получает полный цикл от даты фактического списания.
func (s *Subscription) AdvanceBillingDate(from time.Time) {
	cycle := s.CycleDays
	if cycle <= 0 {
		cycle = DefaultCycleDays
	}
	s.NextBillingDate = DateOnly(from).AddDate(0, 0, cycle)
}

// DefaultCycleDays длина биллингового цикла по умолчанию
const DefaultCycleDays = 30

// ChargeInterruptedReason причина неудачи для подписок, чей захват был
// брошен прерванным запуском процессора
const ChargeInterruptedReason = "charge attempt interrupted"

// BillingResult результат попытки списания по одной подписке
type BillingResult struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Success        bool      `json:"success"`
	PaymentID      string    `json:"payment_id,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// BillingStats агрегированная сводка по запуску процессора биллинга.
// Предназначена для операционного мониторинга, а не для конечного пользователя.
type BillingStats struct {
	TotalProcessed    int      `json:"totalProcessed"`
	SuccessfulCharges int      `json:"successfulCharges"`
	FailedCharges     int      `json:"failedCharges"`
	Errors            []string `json:"errors"`
}
