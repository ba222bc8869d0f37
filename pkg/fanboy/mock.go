// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

// MockTransport implements Transport for testing.
// Each Receive consumes the next entry of Replies; with no replies left it
// fails with ErrTimeout.
type MockTransport struct {
	Replies    [][]byte
	SendErr    error
	ReceiveErr error
	Sent       [][]byte
	Closed     bool

	// ReceiveFunc allows custom receive behavior for complex tests
	ReceiveFunc func(n int) ([]byte, error)
}

func (m *MockTransport) Send(b []byte) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, append([]byte(nil), b...))
	return nil
}

func (m *MockTransport) Receive(n int) ([]byte, error) {
	if m.ReceiveFunc != nil {
		return m.ReceiveFunc(n)
	}
	if m.ReceiveErr != nil {
		return nil, m.ReceiveErr
	}
	if len(m.Replies) == 0 {
		return nil, ErrTimeout
	}
	reply := m.Replies[0]
	m.Replies = m.Replies[1:]
	if len(reply) > n {
		reply = reply[:n]
	}
	if len(reply) == 0 {
		return nil, ErrTimeout
	}
	return reply, nil
}

func (m *MockTransport) Close() error {
	m.Closed = true
	return nil
}
