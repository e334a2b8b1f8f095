package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainErrors "github.com/cassiomorais/reconciler/internal/domain/errors"
	"github.com/cassiomorais/reconciler/internal/domain/payment"
	"github.com/cassiomorais/reconciler/internal/infrastructure/stores"
)

// Regional API endpoints.
var regionEndpoints = map[string]string{
	"na": "https://pay-api.na.example.com/v2",
	"eu": "https://pay-api.eu.example.com/v2",
	"jp": "https://pay-api.jp.example.com/v2",
}

// HTTPClient talks to the payment gateway's REST API. Requests are scoped to
// the store bound on the context; calls without a store scope fail.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient builds a client for the given region. An explicit endpoint
// overrides the regional default.
func NewHTTPClient(region, endpoint string, timeout time.Duration) (*HTTPClient, error) {
	baseURL := endpoint
	if baseURL == "" {
		var ok bool
		baseURL, ok = regionEndpoints[region]
		if !ok {
			return nil, fmt.Errorf("unknown gateway region %q", region)
		}
	}

	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type authorizationDetailsResponse struct {
	AuthorizationID string `json:"authorizationId"`
	State           string `json:"state"`
	ReasonCode      string `json:"reasonCode"`
	CaptureNow      bool   `json:"captureNow"`
	CaptureID       string `json:"captureId"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currencyCode"`
}

type orderDetailsResponse struct {
	OrderReferenceID string `json:"orderReferenceId"`
	State            string `json:"state"`
}

type authorizeRequestBody struct {
	OrderReferenceID       string `json:"orderReferenceId"`
	AuthorizationReference string `json:"authorizationReference"`
	AmountCents            int64  `json:"amountCents"`
	Currency               string `json:"currencyCode"`
	CaptureNow             bool   `json:"captureNow"`
	TransactionTimeout     int    `json:"transactionTimeout"`
}

func (c *HTTPClient) GetAuthorizationDetails(ctx context.Context, req GetAuthorizationDetailsRequest) (*AuthorizationDetails, error) {
	url := fmt.Sprintf("%s/authorizations/%s", c.baseURL, req.AuthorizationID)

	var resp authorizationDetailsResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	return &AuthorizationDetails{
		AuthorizationID: resp.AuthorizationID,
		State:           AuthorizationState(resp.State),
		ReasonCode:      resp.ReasonCode,
		CaptureNow:      resp.CaptureNow,
		CaptureID:       resp.CaptureID,
		Amount:          payment.Amount{ValueCents: resp.AmountCents, Currency: resp.Currency},
	}, nil
}

func (c *HTTPClient) GetOrderReferenceDetails(ctx context.Context, req GetOrderReferenceDetailsRequest) (*OrderDetails, error) {
	url := fmt.Sprintf("%s/order-references/%s", c.baseURL, req.OrderReferenceID)

	var resp orderDetailsResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	return &OrderDetails{
		OrderReferenceID: resp.OrderReferenceID,
		State:            OrderReferenceState(resp.State),
	}, nil
}

func (c *HTTPClient) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizationDetails, error) {
	url := fmt.Sprintf("%s/authorizations", c.baseURL)
	body := authorizeRequestBody{
		OrderReferenceID:       req.OrderReferenceID,
		AuthorizationReference: req.AuthorizationReference,
		AmountCents:            req.Amount.ValueCents,
		Currency:               req.Amount.Currency,
		CaptureNow:             req.CaptureNow,
		TransactionTimeout:     req.TransactionTimeout,
	}

	var resp authorizationDetailsResponse
	if err := c.do(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}

	return &AuthorizationDetails{
		AuthorizationID: resp.AuthorizationID,
		State:           AuthorizationState(resp.State),
		ReasonCode:      resp.ReasonCode,
		CaptureNow:      resp.CaptureNow,
		CaptureID:       resp.CaptureID,
		Amount:          payment.Amount{ValueCents: resp.AmountCents, Currency: resp.Currency},
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body any, out any) error {
	scope, ok := stores.FromContext(ctx)
	if !ok {
		return fmt.Errorf("gateway request without store scope: %w", domainErrors.ErrStoreNotConfigured)
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Merchant-Id", scope.MerchantID)
	httpReq.Header.Set("X-Public-Key-Id", scope.PublicKeyID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return domainErrors.ErrTransactionNotFound
	case httpResp.StatusCode >= 500:
		return fmt.Errorf("%w: gateway returned %d", domainErrors.ErrGatewayUnavailable, httpResp.StatusCode)
	case httpResp.StatusCode >= 400:
		return fmt.Errorf("gateway rejected request with status %d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
