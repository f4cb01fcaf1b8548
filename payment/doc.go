// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package payment implements the payment methods a reservation can be
// paid with: card, PayPal, and crypto. Each [Method] collects its own
// fields, validates them locally, and submits an attempt to the
// payment boundary. A method never touches the seat cache or the
// reservation; the controller acts on the outcome.
//
// Field collection goes through a [Collector] so the interactive
// terminal prompt can be swapped for a details file or a static test
// double.
package payment
