package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"buylog/internal/realtime"
)

// FakeDialer hands out FakeConns, or fails or hangs on demand. It records
// the header of every dial.
type FakeDialer struct {
	mu      sync.Mutex
	err     error
	hang    bool
	headers []http.Header
	conns   chan *FakeConn
}

var _ realtime.Dialer = (*FakeDialer)(nil)

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{conns: make(chan *FakeConn, 16)}
}

// Fail makes subsequent dials return err. A nil err makes them succeed.
func (d *FakeDialer) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Hang makes subsequent dials block until their context is done.
func (d *FakeDialer) Hang(hang bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hang = hang
}

func (d *FakeDialer) Dial(ctx context.Context, url string, header http.Header) (realtime.Conn, error) {
	d.mu.Lock()
	d.headers = append(d.headers, header.Clone())
	err, hang := d.err, d.hang
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	c := NewFakeConn()
	d.conns <- c
	return c, nil
}

// Dials returns how many dials have been attempted.
func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.headers)
}

// Header returns the header sent with dial i.
func (d *FakeDialer) Header(i int) http.Header {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.headers[i]
}

// NextConn waits for the next successful dial and returns its connection.
func (d *FakeDialer) NextConn(t testing.TB) *FakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

// FakeConn is an in-memory realtime.Conn. The test plays the server:
// Deliver queues an inbound message and Break drops the connection.
type FakeConn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written [][]byte
}

var _ realtime.Conn = (*FakeConn)(nil)

func NewFakeConn() *FakeConn {
	return &FakeConn{
		in:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

// Deliver queues data as an inbound message.
func (c *FakeConn) Deliver(data string) {
	c.in <- []byte(data)
}

// Break closes the connection as if the server went away.
func (c *FakeConn) Break() {
	c.Close()
}

func (c *FakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *FakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed connection")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *FakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close or Break has been called.
func (c *FakeConn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Written returns a copy of every message written so far.
func (c *FakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	for i, w := range c.written {
		out[i] = string(w)
	}
	return out
}
