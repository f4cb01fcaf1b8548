// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package updates

import (
	"context"
	"net/http"

	"github.com/coder/websocket"

	"github.com/seatwise/boxoffice/lib/netutil"
)

// Stream is one open subscription.
type Stream interface {
	// Read blocks for the next message. Any error ends the stream.
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport opens subscriptions.
type Transport interface {
	Dial(ctx context.Context, url string) (Stream, error)
}

// WebsocketTransport subscribes over a websocket.
type WebsocketTransport struct {
	// HTTPClient is used for the opening handshake. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// ReadLimit bounds a single message. Zero means
	// netutil.MaxResponseSize.
	ReadLimit int64
}

// Dial opens a websocket subscription.
func (t WebsocketTransport) Dial(ctx context.Context, url string) (Stream, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: t.HTTPClient})
	if err != nil {
		return nil, err
	}
	limit := t.ReadLimit
	if limit == 0 {
		limit = netutil.MaxResponseSize
	}
	conn.SetReadLimit(limit)
	return &websocketStream{conn: conn}, nil
}

type websocketStream struct {
	conn *websocket.Conn
}

func (s *websocketStream) Read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	return data, err
}

func (s *websocketStream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
