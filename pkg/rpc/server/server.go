/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package server exposes controller command handlers as methods of the credbridge RPC channel.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/credbridge/credbridge/pkg/controller/command"
	"github.com/credbridge/credbridge/pkg/rpc/envelope"
)

var logger = log.New("credbridge/rpc/server")

const (
	msgParseError     = "Parse error"
	msgInvalidRequest = "Invalid Request"
	msgInvalidParams  = "Invalid params"
	msgRateLimited    = "Rate limit exceeded"
	msgBadResult      = "Internal error: handler produced invalid result"
)

type options struct {
	rps            float64
	burst          int
	registerer     prometheus.Registerer
	readLimit      int64
	originPatterns []string
}

// Option configures a server.
type Option func(*options)

// WithRateLimit limits every connection to rps requests per second with bursts of up to burst.
// A non positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

// WithRegisterer registers the server metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithReadLimit sets the maximum size of an inbound frame.
func WithReadLimit(n int64) Option {
	return func(o *options) {
		o.readLimit = n
	}
}

// WithOriginPatterns restricts the origins allowed to open a websocket to those whose host
// matches one of patterns (path.Match syntax). Requests without an Origin header or from the
// serving host are always accepted. Without patterns every origin is accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(o *options) {
		o.originPatterns = patterns
	}
}

// Server dispatches request envelopes to command handlers by method name.
type Server struct {
	methods map[string]command.Exec
	opts    *options
	metrics *metrics
}

// New builds a server for handlers. Method names must be unique.
func New(handlers []command.Handler, opts ...Option) (*Server, error) {
	o := &options{}

	for _, opt := range opts {
		opt(o)
	}

	if o.rps > 0 && o.burst <= 0 {
		o.burst = 1
	}

	methods := make(map[string]command.Exec, len(handlers))

	for _, h := range handlers {
		if _, exists := methods[h.Method()]; exists {
			return nil, fmt.Errorf("duplicate method %s in command %s", h.Method(), h.Name())
		}

		methods[h.Method()] = h.Handle()
	}

	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, err
	}

	return &Server{methods: methods, opts: o, metrics: m}, nil
}

// Methods returns the served method names in sorted order.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Handle processes one inbound frame and returns the encoded response envelope.
func (s *Server) Handle(data []byte) []byte {
	return encode(s.handle(data))
}

func (s *Server) handle(data []byte) *envelope.Envelope {
	req, err := envelope.Decode(data)
	if err != nil {
		logger.Debugf("rejecting frame: %v", err)

		if envelope.IsParseError(data) {
			s.metrics.reject(envelope.CodeParseError)

			return envelope.NewError("", envelope.CodeParseError, msgParseError)
		}

		s.metrics.reject(envelope.CodeInvalidRequest)

		return envelope.NewError(frameID(data), envelope.CodeInvalidRequest, msgInvalidRequest)
	}

	if req.Kind != envelope.KindRequest {
		s.metrics.reject(envelope.CodeInvalidRequest)

		return envelope.NewError(req.ID, envelope.CodeInvalidRequest, msgInvalidRequest)
	}

	return s.invoke(req)
}

func (s *Server) invoke(req *envelope.Envelope) (resp *envelope.Envelope) {
	exec, ok := s.methods[req.Method]
	if !ok {
		s.metrics.reject(envelope.CodeMethodNotFound)

		return envelope.NewError(req.ID, envelope.CodeMethodNotFound, fmt.Sprintf("Method %q not found", req.Method))
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("method %s panicked: %v", req.Method, r)

			resp = envelope.NewError(req.ID, envelope.CodeServerError, fmt.Sprintf("%v", r))
		}

		s.metrics.observe(req.Method, resp, time.Since(start))
	}()

	var buf bytes.Buffer

	if cmdErr := exec(&buf, bytes.NewReader(req.Params)); cmdErr != nil {
		return errorEnvelope(req, cmdErr)
	}

	result := bytes.TrimSpace(buf.Bytes())
	if len(result) > 0 && !json.Valid(result) {
		logger.Errorf("method %s wrote a result that is not JSON", req.Method)

		return envelope.NewError(req.ID, envelope.CodeServerError, msgBadResult)
	}

	success, err := envelope.NewSuccess(req.ID, json.RawMessage(result))
	if err != nil {
		return envelope.NewError(req.ID, envelope.CodeServerError, err.Error())
	}

	return success
}

func errorEnvelope(req *envelope.Envelope, cmdErr command.Error) *envelope.Envelope {
	if cmdErr.Type() == command.ValidationError {
		logger.Debugf("method %s: invalid params: %v", req.Method, cmdErr)

		return envelope.NewError(req.ID, envelope.CodeInvalidParams, msgInvalidParams)
	}

	logger.Debugf("method %s failed with code %d: %v", req.Method, cmdErr.Code(), cmdErr)

	return envelope.NewError(req.ID, envelope.CodeServerError, cmdErr.Error())
}

// frameID extracts a string id from a frame that is JSON but not a valid request.
func frameID(data []byte) string {
	var probe struct {
		ID interface{} `json:"id"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}

	id, _ := probe.ID.(string) //nolint:errcheck

	return id
}

func encode(e *envelope.Envelope) []byte {
	b, err := envelope.Encode(e)
	if err != nil {
		logger.Errorf("encode %s response: %v", e.Kind, err)

		b, _ = envelope.Encode(envelope.NewError(e.ID, envelope.CodeServerError, err.Error())) //nolint:errcheck
	}

	return b
}
