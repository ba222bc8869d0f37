// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/fanboy/internal/config"
	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// ErrConnectionClosed is returned when the WebSocket bridge went away
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketTransport carries FanBoy frames as binary WebSocket messages,
// for controllers exposed through a serial-to-WebSocket bridge.
type WebSocketTransport struct {
	conn    *websocket.Conn
	timeout time.Duration

	msgs chan []byte
	done chan struct{} // closed when the reader exits
	err  error         // reader error, valid after done is closed
}

func newWebSocketTransport(conn *websocket.Conn, timeout time.Duration) *WebSocketTransport {
	t := &WebSocketTransport{
		conn:    conn,
		timeout: timeout,
		msgs:    make(chan []byte, 16),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// readLoop pumps incoming messages so a late reply never blocks the socket.
// Gorilla connections cannot be read again after a deadline expires, so
// receive timeouts are enforced on the channel instead.
func (w *WebSocketTransport) readLoop() {
	defer close(w.done)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.err = err
			return
		}
		// We only handle binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.msgs <- data:
		default:
			log.Debug().Int("bytes", len(data)).Msg("websocket receive queue full, dropping message")
		}
	}
}

// Send drops replies left over from an earlier exchange and writes b.
func (w *WebSocketTransport) Send(b []byte) error {
	select {
	case <-w.done:
		return &fanboy.TransportError{Op: "send", Err: fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)}
	default:
	}

	for drained := false; !drained; {
		select {
		case <-w.msgs:
		default:
			drained = true
		}
	}

	if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		return &fanboy.TransportError{Op: "send", Err: err}
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return &fanboy.TransportError{Op: "send", Err: err}
	}
	return nil
}

// Receive collects message bytes until n arrived or the timeout elapsed.
// Bytes beyond n are discarded.
func (w *WebSocketTransport) Receive(n int) ([]byte, error) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	buf := make([]byte, 0, n)
	for len(buf) < n {
		select {
		case data := <-w.msgs:
			buf = append(buf, data...)
		case <-timer.C:
			if len(buf) == 0 {
				return nil, fanboy.ErrTimeout
			}
			return buf, nil
		case <-w.done:
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, &fanboy.TransportError{Op: "receive", Err: fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)}
		}
	}
	return buf[:n], nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (*WebSocketTransport, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", fanboy.ErrConnection, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("%w: unsupported URL scheme: %s (use ws:// or wss://)", fanboy.ErrConnection, u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	// Configure TLS for wss://
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	// Build HTTP headers with Basic auth
	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: WebSocket connection failed (HTTP %d): %v", fanboy.ErrConnection, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: WebSocket connection failed: %v", fanboy.ErrConnection, err)
	}

	return newWebSocketTransport(conn, fanboy.DefaultTimeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("FANBOY_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens the replay file, WebSocket bridge or serial device
// named by the configuration, in that order of precedence.
func OpenTransport(c *config.Config) (fanboy.Transport, string, error) {
	if c.Replay != "" {
		t, err := fanboy.OpenReplay(c.Replay, true)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("Replay: %s", c.Replay), nil
	}

	if c.URL != "" {
		password := ""
		if c.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		t, err := OpenWebSocketConnection(c.URL, c.Username, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("WebSocket: %s", c.URL), nil
	}

	if c.Device != "" {
		t, err := fanboy.OpenSerial(fanboy.SerialConfig{
			Port:     c.Device,
			BaudRate: fanboy.DefaultBaudRate,
			Timeout:  fanboy.DefaultTimeout,
		})
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("Serial: %s @ %d baud", c.Device, fanboy.DefaultBaudRate), nil
	}

	return nil, "", fmt.Errorf("%w: either --device, --url or --replay must be specified", fanboy.ErrConnection)
}
