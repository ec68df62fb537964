package safepay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/shopflow-io/shopflow/internal/domain/payment"
	"github.com/shopflow-io/shopflow/internal/observability"
)

const (
	sandboxBaseURL    = "https://sandbox.api.getsafepay.com"
	productionBaseURL = "https://api.getsafepay.com"

	trackerPath = "/order/payments/v3/"
)

// Client creates payment trackers against the Safepay v3 API. Calls go
// through a circuit breaker so a flapping gateway fails fast instead of
// tying up checkout requests.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	environment string
	breaker     *gobreaker.CircuitBreaker[*payment.GatewaySession]
	log         observability.Logger
}

type Option func(*Client)

// WithBaseURL overrides the environment-derived base URL. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey, environment string, logger observability.Logger, opts ...Option) *Client {
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		environment: environment,
		log:         logger.With(observability.F("component", "safepay")),
	}
	c.breaker = gobreaker.NewCircuitBreaker[*payment.GatewaySession](gobreaker.Settings{
		Name:    "safepay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 4xx responses are caller mistakes, not gateway outages.
			var gwErr *payment.GatewayError
			if errors.As(err, &gwErr) && gwErr.StatusCode < 500 {
				return true
			}
			return err == nil
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Environment() string { return c.environment }

type trackerRequest struct {
	MerchantAPIKey string            `json:"merchant_api_key"`
	Intent         string            `json:"intent"`
	Mode           string            `json:"mode"`
	EntryMode      string            `json:"entry_mode"`
	Currency       string            `json:"currency"`
	Amount         int64             `json:"amount"`
	Metadata       map[string]string `json:"metadata"`
}

type trackerResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token   string `json:"token"`
		Tracker string `json:"tracker"`
	} `json:"data"`
}

func (c *Client) CreateSession(ctx context.Context, amountMinor int64, currency, orderID string) (*payment.GatewaySession, error) {
	return c.breaker.Execute(func() (*payment.GatewaySession, error) {
		return c.createTracker(ctx, amountMinor, currency, orderID)
	})
}

func (c *Client) createTracker(ctx context.Context, amountMinor int64, currency, orderID string) (*payment.GatewaySession, error) {
	body, err := json.Marshal(trackerRequest{
		MerchantAPIKey: c.apiKey,
		Intent:         "CYBERSOURCE",
		Mode:           "payment",
		EntryMode:      "raw",
		Currency:       currency,
		Amount:         amountMinor,
		Metadata:       map[string]string{"order_id": orderID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tracker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackerPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("safepay request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read safepay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("safepay_tracker_failed",
			observability.F("status", resp.StatusCode),
			observability.F("order_id", orderID),
		)
		return nil, &payment.GatewayError{
			StatusCode: resp.StatusCode,
			Message:    gatewayErrorMessage(resp.StatusCode, respBody),
		}
	}

	var tr trackerResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return nil, fmt.Errorf("invalid safepay response: %w", err)
	}

	token := tr.Data.Token
	if token == "" {
		token = tr.Token
	}
	if token == "" {
		token = tr.Data.Tracker
	}
	if token == "" {
		return nil, &payment.GatewayError{
			StatusCode: resp.StatusCode,
			Message:    "no tracker token in gateway response",
		}
	}

	return &payment.GatewaySession{
		Token:       token,
		Environment: c.environment,
	}, nil
}

// gatewayErrorMessage pulls a human-readable message out of whatever JSON
// shape the gateway returns, falling back to the raw body.
func gatewayErrorMessage(status int, body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			return parsed.Message
		case parsed.Error != "":
			return parsed.Error
		case parsed.Detail != "":
			return parsed.Detail
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("gateway returned status %d", status)
}
