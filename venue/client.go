// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seatwise/boxoffice/lib/netutil"
	"github.com/seatwise/boxoffice/lib/schema"
)

// Paths are the endpoint paths, relative to the base URL.
type Paths struct {
	Structure string `yaml:"structure"`
	Search    string `yaml:"search"`
	Hold      string `yaml:"hold"`
	Confirm   string `yaml:"confirm"`
	Cancel    string `yaml:"cancel"`
	Pay       string `yaml:"pay"`
}

// DefaultPaths returns the paths the venue server registers.
func DefaultPaths() Paths {
	return Paths{
		Structure: "/get_stadium_structure",
		Search:    "/buscar_asientos",
		Hold:      "/reservar_asientos_temporalmente",
		Confirm:   "/confirmar_compra",
		Cancel:    "/cancelar_reserva",
		Pay:       "/procesar_pago",
	}
}

// withDefaults fills empty paths from DefaultPaths.
func (p Paths) withDefaults() Paths {
	defaults := DefaultPaths()
	fill := func(value *string, fallback string) {
		if *value == "" {
			*value = fallback
		}
	}
	fill(&p.Structure, defaults.Structure)
	fill(&p.Search, defaults.Search)
	fill(&p.Hold, defaults.Hold)
	fill(&p.Confirm, defaults.Confirm)
	fill(&p.Cancel, defaults.Cancel)
	fill(&p.Pay, defaults.Pay)
	return p
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the venue server root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	// Paths overrides endpoint paths. Empty fields use DefaultPaths.
	Paths Paths
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client calls the venue's reservation endpoints. Safe for concurrent
// use.
type Client struct {
	baseURL    string
	paths      Paths
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a venue client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("venue: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("venue: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("venue: BaseURL %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		paths:      config.Paths.withDefaults(),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops pooled connections. The update channel
// calls this before a resync so a connection poisoned by the outage
// is not reused.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Structure fetches the full seat map. The result is decoded but not
// validated; the seat cache validates on Load.
func (c *Client) Structure(ctx context.Context) (*schema.Structure, error) {
	var structure schema.Structure
	if err := c.doRequest(ctx, "structure", http.MethodGet, c.paths.Structure, nil, decodeJSON(&structure)); err != nil {
		return nil, err
	}
	return &structure, nil
}

// Search asks for count adjacent free seats in category. The venue
// answers 404 when no zone has enough consecutive free seats; that
// and an empty seat list both return ErrNoSeatsAvailable.
func (c *Client) Search(ctx context.Context, category string, count int) (*schema.Suggestion, error) {
	request := schema.SearchRequest{Category: category, Count: count}
	var suggestion schema.Suggestion
	err := c.doRequest(ctx, "search", http.MethodPost, c.paths.Search, request, decodeJSON(&suggestion))
	if err != nil {
		var venueErr *Error
		if errors.As(err, &venueErr) && venueErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("venue: search %s x%d: %w", category, count, ErrNoSeatsAvailable)
		}
		return nil, err
	}

	if len(suggestion.Seats) == 0 {
		return nil, fmt.Errorf("venue: search %s x%d: %w", category, count, ErrNoSeatsAvailable)
	}
	if suggestion.Zone == "" {
		return nil, fmt.Errorf("venue: search: %w: missing zona", ErrMalformedResponse)
	}
	if suggestion.Category == "" {
		suggestion.Category = category
	}
	return &suggestion, nil
}

// Hold places a temporary hold and returns the reservation id.
func (c *Client) Hold(ctx context.Context, zone, category string, seats []schema.Coord) (string, error) {
	request := schema.HoldRequest{Zone: zone, Category: category, Seats: seats}
	var response schema.HoldResponse
	err := c.doRequest(ctx, "hold", http.MethodPost, c.paths.Hold, request, decodeJSON(&response))
	if err != nil {
		var venueErr *Error
		if errors.As(err, &venueErr) && venueErr.StatusCode == http.StatusBadRequest {
			return "", fmt.Errorf("venue: hold %s/%s: %w: %s", zone, category, ErrHoldRejected, venueErr.Message)
		}
		return "", err
	}

	if response.ReservationID == "" {
		return "", fmt.Errorf("venue: hold: %w: missing reserva_id", ErrMalformedResponse)
	}
	return response.ReservationID, nil
}

// Confirm converts a held reservation into a purchase. False means
// the venue no longer knows the reservation (expired or cancelled).
func (c *Client) Confirm(ctx context.Context, reservationID string) (bool, error) {
	return c.reservationCall(ctx, "confirm", c.paths.Confirm, reservationID)
}

// Cancel releases a held reservation. False means the venue no longer
// knows it.
func (c *Client) Cancel(ctx context.Context, reservationID string) (bool, error) {
	return c.reservationCall(ctx, "cancel", c.paths.Cancel, reservationID)
}

func (c *Client) reservationCall(ctx context.Context, op, path, reservationID string) (bool, error) {
	var result bool
	err := c.doRequest(ctx, op, http.MethodPost, path, schema.ReservationRequest{ReservationID: reservationID},
		func(body io.Reader) (err error) {
			result, err = netutil.DecodeBool(body)
			return err
		})
	if err != nil {
		return false, err
	}
	return result, nil
}

// Pay submits a payment attempt and reports whether it was approved.
// The venue answers with a bare boolean or with {"aprobado": bool}.
func (c *Client) Pay(ctx context.Context, request schema.PaymentRequest) (bool, error) {
	var response schema.PaymentResponse
	err := c.doRequest(ctx, "pay", http.MethodPost, c.paths.Pay, request, func(body io.Reader) error {
		data, err := netutil.ReadResponse(body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		if approved, err := netutil.ParseBool(data); err == nil {
			response.Approved = approved
			return nil
		}
		return json.Unmarshal(data, &response)
	})
	if err != nil {
		return false, err
	}
	if response.Message != "" {
		c.logger.Debug("payment response message", "method", request.Method, "message", response.Message)
	}
	return response.Approved, nil
}

func decodeJSON(v any) func(io.Reader) error {
	return func(body io.Reader) error {
		return netutil.DecodeResponse(body, v)
	}
}

// doRequest performs one JSON round trip and hands a 2xx response body
// to decode. A non-2xx status becomes an *Error carrying the trimmed
// body; a decode failure wraps ErrMalformedResponse. Every request
// carries a fresh X-Request-Id for correlation with venue logs.
func (c *Client) doRequest(ctx context.Context, op, method, path string, requestBody any, decode func(io.Reader) error) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("venue: %s: encoding request body: %w", op, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("venue: %s: creating request: %w", op, err)
	}
	requestID := uuid.NewString()
	request.Header.Set("X-Request-Id", requestID)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer response.Body.Close()

	c.logger.Debug("venue call",
		"op", op,
		"status", response.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &Error{
			Op:         op,
			StatusCode: response.StatusCode,
			Message:    netutil.ErrorBody(response.Body),
		}
	}
	if decode == nil {
		return nil
	}
	if err := decode(response.Body); err != nil {
		return fmt.Errorf("venue: %s: %w: %w", op, ErrMalformedResponse, err)
	}
	return nil
}
