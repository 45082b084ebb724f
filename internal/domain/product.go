package domain

import "time"

// Product представляет собой продукт витрины с настройками рекуррентной цены
type Product struct {
	// Identifier непрозрачный строковый ключ продукта
	Identifier string `json:"identifier"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// AmountCents цена рекуррентного списания в минимальных единицах валюты
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`

	// IntervalDays длина биллингового цикла продукта в днях
	IntervalDays int `json:"interval_days"`

	// Hostnames домены витрин, разрешающиеся в этот продукт
	Hostnames []string `json:"hostnames,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricingSnapshot возвращает снимок цены продукта для фиксации на подписке
func (p *Product) PricingSnapshot() (amountCents int64, currency string, cycleDays int) {
	amountCents = p.AmountCents
	currency = p.Currency
	cycleDays = p.IntervalDays
	if cycleDays <= 0 {
		cycleDays = DefaultCycleDays
	}
	return amountCents, currency, cycleDays
}
