package primer

import (
	"net/http"
	"time"

	"github.com/Dhoini/storefront-billing/pkg/logger"
)

// Client представляет клиент для работы с API Primer
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	log        *logger.Logger
}

// Config конфигурация для клиента Primer
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
}

// NewClient создает новый клиент Primer
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.primer.io"
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2.4"
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// setHeaders добавляет обязательные заголовки Primer API к запросу
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Version", c.apiVersion)
}

// maskAPIKey возвращает частично скрытый API ключ для логирования
func maskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
