package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PaymentIntent — платёжное намерение Stripe. Сумма в центах.
type PaymentIntent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Refund — возврат средств по платёжному намерению.
type Refund struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"payment_intent"`
}

// Статусы платёжного намерения, которые нас интересуют.
const (
	IntentStatusSucceeded            = "succeeded"
	IntentStatusRequiresConfirmation = "requires_confirmation"
)

// Error — ошибка Stripe API.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("stripe: %s (%s)", e.Message, e.Type)
}

type errorResponse struct {
	Error *Error `json:"error"`
}

// Client — минимальный HTTP клиент Stripe API.
// Реализованы только платёжные намерения и возвраты.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента. Пустой baseURL означает
// боевой адрес Stripe.
func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			// Таймаут шлюза трактуется как сбой оплаты: статус заказа не меняется.
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePaymentIntent создаёт платёжное намерение с ручным подтверждением.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, paymentMethodID string, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("payment_method", paymentMethodID)
	form.Set("confirmation_method", "manual")
	form.Set("confirm", "true")
	for key, value := range metadata {
		form.Set("metadata["+key+"]", value)
	}

	var intent PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// ConfirmPaymentIntent подтверждает ранее созданное платёжное намерение.
func (c *Client) ConfirmPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents/"+intentID+"/confirm", url.Values{}, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// CreateRefund создаёт возврат по платёжному намерению.
func (c *Client) CreateRefund(ctx context.Context, paymentIntentID, reason string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)
	if reason != "" {
		form.Set("metadata[reason]", reason)
	}

	var refund Refund
	if err := c.post(ctx, "/v1/refunds", form, &refund); err != nil {
		return nil, err
	}

	return &refund, nil
}

// post выполняет form-encoded POST запрос к Stripe API.
func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("stripe: не удалось создать запрос: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: запрос %s не выполнен: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe: не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
			return errResp.Error
		}
		return fmt.Errorf("stripe: статус %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("stripe: не удалось распарсить ответ: %w", err)
	}

	return nil
}
