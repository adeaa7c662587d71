/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client implements the calling side of the credbridge RPC channel. It correlates
// responses arriving in any order with the calls that produced them over a single websocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"nhooyr.io/websocket"

	"github.com/credbridge/credbridge/pkg/rpc/envelope"
)

var logger = log.New("credbridge/rpc/client")

// ErrConnectionClosed is wrapped by the error of every call rejected because the channel is gone.
var ErrConnectionClosed = errors.New("connection closed")

// Call is an invocation in flight. Done receives the call once it completed.
type Call struct {
	ID     string
	Method string
	Params interface{}
	// Result holds the raw result of a successful call.
	Result json.RawMessage
	// Error is set when the call failed. Remote failures are *envelope.Error.
	Error error
	Done  chan *Call
}

func (call *Call) done() {
	select {
	case call.Done <- call:
	default:
		logger.Warnf("discarding reply for call %s: done channel is full", call.ID)
	}
}

type options struct {
	backOff    backoff.BackOff
	httpClient *http.Client
	header     http.Header
	readLimit  int64
}

// Option configures a client.
type Option func(*options)

// WithDialBackOff retries the initial dial according to b. By default the dial is attempted once.
func WithDialBackOff(b backoff.BackOff) Option {
	return func(o *options) {
		o.backOff = b
	}
}

// WithHTTPClient sets the HTTP client used for the websocket handshake.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithHTTPHeader sets headers sent with the websocket handshake.
func WithHTTPHeader(h http.Header) Option {
	return func(o *options) {
		o.header = h
	}
}

// WithReadLimit sets the maximum size of an inbound frame.
func WithReadLimit(n int64) Option {
	return func(o *options) {
		o.readLimit = n
	}
}

// Client multiplexes concurrent calls over one websocket connection.
type Client struct {
	endpoint string
	opts     *options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	queue   [][]byte
	pending map[string]*Call
	err     error

	wake chan struct{}
}

// New returns a client for the websocket at endpoint. Dialing starts in the background; calls
// issued before the connection opens are queued and sent in order once it does.
func New(endpoint string, opts ...Option) *Client {
	o := &options{backOff: &backoff.StopBackOff{}}

	for _, opt := range opts {
		opt(o)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		endpoint: endpoint,
		opts:     o,
		ctx:      ctx,
		cancel:   cancel,
		pending:  map[string]*Call{},
		wake:     make(chan struct{}, 1),
	}

	go c.connect()

	return c
}

// Go invokes method asynchronously. The returned call is delivered on its Done channel when the
// matching response arrives or the channel fails.
func (c *Client) Go(method string, params interface{}) *Call {
	call := &Call{
		ID:     uuid.New().String(),
		Method: method,
		Params: params,
		Done:   make(chan *Call, 1),
	}

	req, err := envelope.NewRequest(call.ID, method, params)
	if err != nil {
		call.Error = err
		call.done()

		return call
	}

	frame, err := envelope.Encode(req)
	if err != nil {
		call.Error = err
		call.done()

		return call
	}

	c.mu.Lock()

	if c.err != nil {
		call.Error = c.err
		c.mu.Unlock()
		call.done()

		return call
	}

	c.pending[call.ID] = call
	c.queue = append(c.queue, frame)
	c.mu.Unlock()

	c.signal()

	return call
}

// Call invokes method and waits for its completion, decoding the result into result when it is
// not nil. Cancelling ctx stops the wait; the call itself stays in flight.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	call := c.Go(method, params)

	select {
	case <-call.Done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if call.Error != nil {
		return call.Error
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(call.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

// Close tears the channel down. Calls still pending fail with ErrConnectionClosed.
func (c *Client) Close() error {
	c.fail(ErrConnectionClosed)

	return nil
}

// Err returns the reason the channel failed, or nil while it is usable.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

func (c *Client) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) connect() {
	var conn *websocket.Conn

	dial := func() error {
		var err error

		conn, _, err = websocket.Dial(c.ctx, c.endpoint, &websocket.DialOptions{ //nolint:bodyclose
			HTTPClient: c.opts.httpClient,
			HTTPHeader: c.opts.header,
		})
		if err != nil {
			logger.Debugf("dial %s: %v", c.endpoint, err)
		}

		return err
	}

	if err := backoff.Retry(dial, backoff.WithContext(c.opts.backOff, c.ctx)); err != nil {
		c.fail(fmt.Errorf("%w: dial %s: %v", ErrConnectionClosed, c.endpoint, err))

		return
	}

	if c.opts.readLimit > 0 {
		conn.SetReadLimit(c.opts.readLimit)
	}

	c.mu.Lock()

	if c.err != nil {
		c.mu.Unlock()

		if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
			logger.Debugf("close connection opened after shutdown: %v", err)
		}

		return
	}

	c.conn = conn
	c.mu.Unlock()

	logger.Debugf("connected to %s", c.endpoint)

	go c.writeLoop(conn)

	c.signal()
	c.readLoop(conn)
}

func (c *Client) writeLoop(conn *websocket.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}

		c.mu.Lock()
		frames := c.queue
		c.queue = nil
		c.mu.Unlock()

		for _, frame := range frames {
			if err := conn.Write(c.ctx, websocket.MessageText, frame); err != nil {
				c.fail(fmt.Errorf("%w: write: %v", ErrConnectionClosed, err))

				return
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.fail(ErrConnectionClosed)
			} else {
				c.fail(fmt.Errorf("%w: read: %v", ErrConnectionClosed, err))
			}

			return
		}

		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	env, err := envelope.Decode(data)
	if err != nil {
		logger.Debugf("dropping malformed frame: %v", err)

		return
	}

	if env.Kind == envelope.KindRequest || env.ID == "" {
		logger.Debugf("dropping unsolicited %s frame", env.Kind)

		return
	}

	c.mu.Lock()
	call, ok := c.pending[env.ID]
	delete(c.pending, env.ID)
	c.mu.Unlock()

	if !ok {
		logger.Debugf("dropping frame for unknown call %s", env.ID)

		return
	}

	if env.Kind == envelope.KindError {
		call.Error = env.Error
	} else {
		call.Result = env.Result
	}

	call.done()
}

// fail moves the client to its terminal state once and rejects every call not yet completed.
func (c *Client) fail(err error) {
	c.mu.Lock()

	if c.err != nil {
		c.mu.Unlock()

		return
	}

	c.err = err
	pending := c.pending
	c.pending = map[string]*Call{}
	c.queue = nil
	conn := c.conn
	c.mu.Unlock()

	if err != ErrConnectionClosed { //nolint:errorlint
		logger.Infof("rpc channel to %s failed: %v", c.endpoint, err)
	}

	for _, call := range pending {
		call.Error = err
		call.done()
	}

	if conn != nil {
		if cerr := conn.Close(websocket.StatusNormalClosure, ""); cerr != nil &&
			websocket.CloseStatus(cerr) != websocket.StatusNormalClosure {
			logger.Debugf("close connection: %v", cerr)
		}
	}

	c.cancel()
}
