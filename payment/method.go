// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seatwise/boxoffice/lib/schema"
)

// Kind tags a payment method. The values are the wire values of
// "metodo_pago".
type Kind string

const (
	Card   Kind = "tarjeta"
	PayPal Kind = "paypal"
	Crypto Kind = "cripto"
)

// Kinds lists every supported method.
var Kinds = []Kind{Card, PayPal, Crypto}

// ParseKind accepts a wire value or its English name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "card", "tarjeta":
		return Card, nil
	case "paypal":
		return PayPal, nil
	case "crypto", "cripto":
		return Crypto, nil
	}
	return "", fmt.Errorf("payment: unknown method %q (want card, paypal, or crypto)", s)
}

// Field is one input a method needs.
type Field struct {
	// Name is the key in "detalles".
	Name string
	// Label is the prompt shown to the user.
	Label string
	// Secret fields are read without echo.
	Secret bool
}

// Fields returns the inputs kind requires, in prompt order.
func Fields(kind Kind) []Field {
	switch kind {
	case Card:
		return []Field{
			{Name: "numero_tarjeta", Label: "Card number"},
			{Name: "titular", Label: "Cardholder name"},
			{Name: "vencimiento", Label: "Expiry (MM/YY)"},
			{Name: "cvv", Label: "CVV", Secret: true},
		}
	case PayPal:
		return []Field{
			{Name: "correo", Label: "PayPal email"},
			{Name: "contrasena", Label: "PayPal password", Secret: true},
		}
	case Crypto:
		return []Field{
			{Name: "billetera", Label: "Wallet address"},
			{Name: "moneda", Label: "Currency (BTC, ETH, ...)"},
		}
	}
	return nil
}

// Details maps field names to entered values.
type Details map[string]string

// Outcome is the result of one payment attempt.
type Outcome string

const (
	Approved     Outcome = "approved"
	Denied       Outcome = "denied"
	InvalidInput Outcome = "invalid-input"
)

var (
	// ErrInvalidInput is wrapped by every local validation failure.
	ErrInvalidInput = errors.New("invalid payment input")

	// ErrDenied reports a payment the boundary rejected. The
	// reservation stays held so another method can be tried.
	ErrDenied = errors.New("payment denied")

	// ErrCancelled is returned by collectors when the user aborts.
	ErrCancelled = errors.New("payment input cancelled")
)

// InvalidInputError lists the fields that failed validation.
type InvalidInputError struct {
	Kind    Kind
	Missing []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s: missing %s", ErrInvalidInput, e.Kind, strings.Join(e.Missing, ", "))
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// ReservationContext identifies the reservation an attempt pays for.
type ReservationContext struct {
	ReservationID string
	Zone          string
	Category      string
	Seats         []schema.Coord
}

// Gateway is the payment boundary. *venue.Client satisfies it.
type Gateway interface {
	Pay(ctx context.Context, request schema.PaymentRequest) (bool, error)
}

// Collector gathers field values from the user. It returns
// ErrCancelled (possibly wrapped) when the user aborts.
type Collector interface {
	Collect(ctx context.Context, kind Kind, fields []Field) (Details, error)
}

// Method is one way to pay.
type Method interface {
	Kind() Kind
	Fields() []Field

	// CollectInput gathers the method's fields.
	CollectInput(ctx context.Context) (Details, error)

	// Validate checks details locally against the method's policy.
	// Failures are *InvalidInputError.
	Validate(details Details) error

	// Submit validates details, then sends the attempt to the
	// gateway. Invalid input returns InvalidInput without contacting
	// the gateway. A gateway failure returns the error with an empty
	// outcome.
	Submit(ctx context.Context, details Details, reservation ReservationContext) (Outcome, error)
}

// Options configure a method. The zero value uses RequireAll and
// slog.Default().
type Options struct {
	Policy Policy
	Logger *slog.Logger
}

// New returns the method for kind.
func New(kind Kind, collector Collector, gateway Gateway, options Options) (Method, error) {
	if Fields(kind) == nil {
		return nil, fmt.Errorf("payment: unknown method %q", kind)
	}
	if collector == nil {
		return nil, fmt.Errorf("payment: collector is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment: gateway is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &method{
		kind:      kind,
		fields:    Fields(kind),
		collector: collector,
		gateway:   gateway,
		policy:    options.Policy,
		logger:    logger,
	}, nil
}

// NewCard returns a card method with default options.
func NewCard(collector Collector, gateway Gateway) (Method, error) {
	return New(Card, collector, gateway, Options{})
}

// NewPayPal returns a PayPal method with default options.
func NewPayPal(collector Collector, gateway Gateway) (Method, error) {
	return New(PayPal, collector, gateway, Options{})
}

// NewCrypto returns a crypto method with default options.
func NewCrypto(collector Collector, gateway Gateway) (Method, error) {
	return New(Crypto, collector, gateway, Options{})
}

type method struct {
	kind      Kind
	fields    []Field
	collector Collector
	gateway   Gateway
	policy    Policy
	logger    *slog.Logger
}

func (m *method) Kind() Kind { return m.kind }

func (m *method) Fields() []Field { return append([]Field(nil), m.fields...) }

func (m *method) CollectInput(ctx context.Context) (Details, error) {
	details, err := m.collector.Collect(ctx, m.kind, m.Fields())
	if err != nil {
		return nil, fmt.Errorf("payment: collecting %s input: %w", m.kind, err)
	}
	return details, nil
}

func (m *method) Validate(details Details) error {
	return m.policy.check(m.kind, m.fields, details)
}

func (m *method) Submit(ctx context.Context, details Details, reservation ReservationContext) (Outcome, error) {
	if err := m.Validate(details); err != nil {
		return InvalidInput, err
	}

	request := schema.PaymentRequest{Method: string(m.kind), Details: make(map[string]string, len(m.fields))}
	for _, field := range m.fields {
		request.Details[field.Name] = strings.TrimSpace(details[field.Name])
	}

	approved, err := m.gateway.Pay(ctx, request)
	if err != nil {
		return "", fmt.Errorf("payment: submitting %s: %w", m.kind, err)
	}
	outcome := Denied
	if approved {
		outcome = Approved
	}
	m.logger.Info("payment attempt",
		"method", m.kind,
		"reservation_id", reservation.ReservationID,
		"outcome", outcome,
	)
	return outcome, nil
}
