package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-bankfeed/core"
)

// Client is the shared outbound plumbing every bank adapter builds on. It
// pins a base URL, forwards default headers, runs the rate-limit gate around
// each call, and normalizes non-2xx responses into provider errors.
type Client struct {
	Provider       core.ProviderID
	BaseURL        string
	Transport      core.TransportAdapter
	RateLimit      core.RateLimitPolicy
	DefaultHeaders map[string]string
}

func NewClient(provider core.ProviderID, baseURL string, transport core.TransportAdapter) *Client {
	return &Client{
		Provider:       provider,
		BaseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Transport:      transport,
		DefaultHeaders: map[string]string{},
	}
}

func (c *Client) resolveURL(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Do executes one provider call. The response is returned even on error
// statuses so callers can inspect throttle headers.
func (c *Client) Do(ctx context.Context, operation string, req core.TransportRequest) (core.TransportResponse, error) {
	if c == nil || c.Transport == nil {
		return core.TransportResponse{}, fmt.Errorf("providers: transport is not configured")
	}
	req.URL = c.resolveURL(req.URL)
	headers := map[string]string{}
	for key, value := range c.DefaultHeaders {
		headers[key] = value
	}
	for key, value := range req.Headers {
		headers[key] = value
	}
	req.Headers = headers

	key := core.RateLimitKey{Provider: c.Provider, Operation: operation}
	if c.RateLimit != nil {
		if err := c.RateLimit.BeforeCall(ctx, key); err != nil {
			return core.TransportResponse{}, err
		}
	}

	res, err := c.Transport.Do(ctx, req)
	if c.RateLimit != nil && err == nil {
		_ = c.RateLimit.AfterCall(ctx, key, core.ProviderResponseMeta{
			StatusCode: res.StatusCode,
			Headers:    res.Headers,
		})
	}
	if err != nil {
		return core.TransportResponse{}, core.NewProviderError(c.Provider, "", operation+" transport call failed", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, c.statusError(operation, res)
	}
	return res, nil
}

func (c *Client) statusError(operation string, res core.TransportResponse) error {
	upstreamCode, message := sniffErrorBody(res.Body)
	if upstreamCode == "" {
		upstreamCode = strconv.Itoa(res.StatusCode)
	}
	if message == "" {
		message = operation + " returned status " + strconv.Itoa(res.StatusCode)
	}
	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.NewAuthenticationError(message, nil)
	}
	return core.NewProviderError(c.Provider, upstreamCode, message, nil)
}

// GetJSON issues a GET and decodes the body into out when out is non-nil.
func (c *Client) GetJSON(
	ctx context.Context,
	operation string,
	path string,
	query map[string]string,
	headers map[string]string,
	out any,
) error {
	res, err := c.Do(ctx, operation, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     path,
		Query:   query,
		Headers: headers,
	})
	if err != nil {
		return err
	}
	return c.decode(operation, res.Body, out)
}

func (c *Client) PostJSON(
	ctx context.Context,
	operation string,
	path string,
	body any,
	headers map[string]string,
	out any,
) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("providers: encode %s request: %w", operation, err)
		}
		payload = encoded
	}
	merged := map[string]string{"Content-Type": "application/json"}
	for key, value := range headers {
		merged[key] = value
	}
	res, err := c.Do(ctx, operation, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     path,
		Body:    payload,
		Headers: merged,
	})
	if err != nil {
		return err
	}
	return c.decode(operation, res.Body, out)
}

func (c *Client) Delete(ctx context.Context, operation string, path string, headers map[string]string) error {
	_, err := c.Do(ctx, operation, core.TransportRequest{
		Method:  http.MethodDelete,
		URL:     path,
		Headers: headers,
	})
	return err
}

func (c *Client) decode(operation string, body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return core.NewProviderError(c.Provider, "", operation+" returned an undecodable body", err)
	}
	return nil
}

// sniffErrorBody pulls a machine code and human message out of the error
// shapes the upstream APIs actually use. Unknown shapes yield empty values.
func sniffErrorBody(body []byte) (code string, message string) {
	if len(body) == 0 {
		return "", ""
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", ""
	}

	readString := func(keys ...string) string {
		for _, key := range keys {
			if value, ok := envelope[key].(string); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}
		return ""
	}

	code = readString("error_code", "code", "type", "error_type")
	message = readString("message", "detail", "summary", "error_description")

	if nested, ok := envelope["error"].(map[string]any); ok {
		if code == "" {
			if value, ok := nested["code"].(string); ok {
				code = strings.TrimSpace(value)
			}
		}
		if message == "" {
			if value, ok := nested["message"].(string); ok {
				message = strings.TrimSpace(value)
			}
		}
	} else if flat, ok := envelope["error"].(string); ok && code == "" {
		code = strings.TrimSpace(flat)
	}
	return code, message
}

// BookedOnly drops unsettled entries. Adapters filter before returning so
// unbooked rows never cross the adapter boundary, whoever the caller is.
func BookedOnly(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(in))
	for _, tx := range in {
		if tx.Status == core.TransactionStatusBooked {
			out = append(out, tx)
		}
	}
	return out
}

// ParseAmount parses the decimal strings banks put on the wire without
// touching binary floats.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("providers: amount is empty")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("providers: parse amount %q: %w", value, err)
	}
	return amount, nil
}

// ParseDate accepts the date-only and RFC3339 stamps that appear in
// transaction feeds.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("providers: date is empty")
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("providers: unrecognized date %q", value)
}
