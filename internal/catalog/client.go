// Package catalog fetches the raw flight catalog from the upstream provider.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/go-playground/validator/v10"
)

const maxPayloadBytes = 16 << 20

// RawFlight is one record as published by the catalog provider.
type RawFlight struct {
	DepartureStation string   `json:"departureStation" validate:"required"`
	ArrivalStation   string   `json:"arrivalStation" validate:"required"`
	Price            *float64 `json:"price" validate:"required,gte=0"`
	FlightCarrier    string   `json:"flightCarrier" validate:"required"`
	FlightNumber     string   `json:"flightNumber" validate:"required"`
}

type Client struct {
	httpClient *http.Client
	url        string
	validate   *validator.Validate
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client for the catalog at url. timeout bounds each
// Fetch call, including reading the body.
func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

// Fetch downloads and validates the whole catalog. Transport failures wrap
// domain.ErrSourceUnavailable; bad payloads return *domain.CatalogFormatError.
func (c *Client) Fetch(ctx context.Context) ([]RawFlight, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrSourceUnavailable, err)
	}

	return c.Decode(body)
}

// Decode parses a catalog payload. Trailing commas are accepted.
func (c *Client) Decode(body []byte) ([]RawFlight, error) {
	var records []RawFlight
	if err := json.Unmarshal(stripTrailingCommas(body), &records); err != nil {
		return nil, &domain.CatalogFormatError{Index: -1, Err: fmt.Errorf("decode: %w", err)}
	}

	for i := range records {
		r := &records[i]
		r.DepartureStation = normalizeStation(r.DepartureStation)
		r.ArrivalStation = normalizeStation(r.ArrivalStation)
		r.FlightCarrier = strings.TrimSpace(r.FlightCarrier)
		r.FlightNumber = strings.TrimSpace(r.FlightNumber)

		if err := c.validate.Struct(r); err != nil {
			return nil, formatError(i, err)
		}
	}
	return records, nil
}

func formatError(index int, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.CatalogFormatError{
			Index: index,
			Field: fe.Field(),
			Err:   fmt.Errorf("failed %q validation", fe.Tag()),
		}
	}
	return &domain.CatalogFormatError{Index: index, Err: err}
}

func normalizeStation(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket or brace, ignoring string literals.
func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		ch := data[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(data) && isSpace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == ']' || data[j] == '}') {
				continue
			}
		}
		out = append(out, ch)
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
