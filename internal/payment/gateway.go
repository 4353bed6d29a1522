package payment

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

	"github.com/marketbay/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// HostedSession is a payment-provider hosted checkout page the shopper
// is redirected to.
type HostedSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway creates hosted checkout sessions with an external payment
// provider. It is constructed explicitly and injected so the checkout
// flow stays testable with a fake.
type Gateway interface {
	CreateSession(ctx context.Context, session *domain.CheckoutSession, successURL, cancelURL string) (*HostedSession, error)
}

type HTTPGateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*HostedSession]
}

func NewHTTPGateway(endpoint, apiKey string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[*HostedSession](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPGateway{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
		breaker:  breaker,
	}
}

func (g *HTTPGateway) CreateSession(ctx context.Context, session *domain.CheckoutSession, successURL, cancelURL string) (*HostedSession, error) {
	return g.breaker.Execute(func() (*HostedSession, error) {
		return g.createSession(ctx, session, successURL, cancelURL)
	})
}

func (g *HTTPGateway) createSession(ctx context.Context, session *domain.CheckoutSession, successURL, cancelURL string) (*HostedSession, error) {
	form := url.Values{}
	form.Set("mode", session.Mode)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("payment_method_types[0]", "card")

	for i, item := range session.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", session.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.ProductName)
		for j, img := range item.Images {
			form.Set(fmt.Sprintf("%s[price_data][product_data][images][%d]", prefix, j), img)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.SetBasicAuth(g.apiKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var hosted HostedSession
	if err := json.Unmarshal(body, &hosted); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return &hosted, nil
}
