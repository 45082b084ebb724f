package primer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/Dhoini/storefront-billing/internal/domain"
	"github.com/Dhoini/storefront-billing/pkg/logger"
)

// Заголовки, в которых Primer может передавать подпись вебхука
var signatureHeaders = []string{
	"X-Primer-Signature",
	"Primer-Signature",
	"Signature",
}

// SignatureVerifier проверяет подлинность вебхуков Primer по HMAC-SHA256 подписи
type SignatureVerifier struct {
	secret []byte
	log    *logger.Logger
}

// NewSignatureVerifier создает новый верификатор подписей вебхуков
func NewSignatureVerifier(secret string, log *logger.Logger) *SignatureVerifier {
	return &SignatureVerifier{
		secret: []byte(secret),
		log:    log,
	}
}

// SignatureFromRequest извлекает подпись из заголовков запроса.
// Возвращает пустую строку, если подписи нет ни в одном известном заголовке.
func SignatureFromRequest(r *http.Request) string {
	for _, header := range signatureHeaders {
		if sig := r.Header.Get(header); sig != "" {
			return sig
		}
	}
	return ""
}

// Verify проверяет подпись для сырого тела запроса.
// Несовпадение подписи и некорректный hex не являются ошибкой: возвращается false.
// Ошибка возвращается только если секрет не сконфигурирован - это ошибка деплоя,
// а не ошибка верификации.
func (v *SignatureVerifier) Verify(body []byte, signature string) (bool, error) {
	if len(v.secret) == 0 {
		v.log.Error("Webhook secret is not configured")
		return false, domain.ErrSecretNotConfigured
	}

	// Убираем префикс sha256=, если он есть
	cleanSignature := strings.TrimPrefix(signature, "sha256=")

	provided, err := hex.DecodeString(cleanSignature)
	if err != nil {
		v.log.Warn("Webhook signature is not valid hex: %v", err)
		return false, nil
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	// hmac.Equal выполняет сравнение за константное время
	return hmac.Equal(provided, expected), nil
}
