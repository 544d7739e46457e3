package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

const (
	defaultWebhookTimeout = 10 * time.Second

	headerEventID   = "X-Booksapi-Event-Id"
	headerEventType = "X-Booksapi-Event-Type"
	headerISBN      = "X-Booksapi-Isbn"
	headerTimestamp = "X-Booksapi-Timestamp"
	headerSignature = "X-Booksapi-Signature"
)

// ErrPermanent marks a delivery the receiver rejected for good. The
// dispatcher does not retry it.
var ErrPermanent = errors.New("permanent delivery failure")

// bookDelivery is the webhook body. Book is omitted for book.deleted.
type bookDelivery struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ISBN       string          `json:"isbn"`
	RequestID  string          `json:"request_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Book       json.RawMessage `json:"book,omitempty"`
}

// WebhookPublisher tells an external receiver about book changes.
type WebhookPublisher struct {
	url    string
	secret []byte
	client *http.Client
	now    func() time.Time
}

func NewWebhookPublisher(url, secret string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookPublisher{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Publish POSTs one book change. The signature header is the hex HMAC-SHA256
// of "<timestamp>.<body>", with the unix timestamp sent alongside it, so a
// receiver can reject stale replays. 408, 429 and 5xx responses are retryable;
// any other non-2xx response wraps ErrPermanent.
func (p *WebhookPublisher) Publish(ctx context.Context, event domain.BookEvent) error {
	body, err := json.Marshal(bookDelivery{
		ID:         event.EventID,
		Type:       event.EventType,
		ISBN:       event.ISBN,
		RequestID:  event.RequestID,
		OccurredAt: event.OccurredAt,
		Book:       event.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode %s delivery: %w", event.EventType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	ts := strconv.FormatInt(p.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerEventID, event.EventID)
	req.Header.Set(headerEventType, event.EventType)
	req.Header.Set(headerISBN, event.ISBN)
	req.Header.Set(headerTimestamp, ts)
	req.Header.Set(headerSignature, "sha256="+Sign(p.secret, ts, body))

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s for isbn %s: %w", event.EventType, event.ISBN, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("webhook receiver returned %d", code)
	default:
		return fmt.Errorf("%w: webhook receiver returned %d", ErrPermanent, code)
	}
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>".
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature header value produced by Publish.
func VerifySignature(secret []byte, timestamp string, body []byte, header string) bool {
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	want := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(header[len(prefix):]), []byte(want))
}
