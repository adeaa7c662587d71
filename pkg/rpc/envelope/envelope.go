/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package envelope implements the request/response/error message wrapper exchanged between the
// credbridge RPC client and server. The wire format is JSON-RPC 2.0 compatible.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC version tag written on every encoded envelope.
const Version = "2.0"

// JSON-RPC error codes used by the bridge.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	CodeRateLimited    = -32029
)

// ErrDecode is wrapped by every error returned from Decode.
var ErrDecode = errors.New("envelope decode")

// Kind is the envelope variant.
type Kind int

// Envelope kinds.
const (
	KindRequest Kind = iota + 1
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error member of an error envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Envelope is one of a request, a success or an error message.
// Only the members relevant to Kind are set.
type Envelope struct {
	Kind   Kind
	ID     string
	Method string
	Params json.RawMessage
	Result json.RawMessage
	Error  *Error
}

// NewRequest builds a request envelope, marshalling params unless they already are raw JSON.
func NewRequest(id, method string, params interface{}) (*Envelope, error) {
	raw, err := toRaw(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	return &Envelope{Kind: KindRequest, ID: id, Method: method, Params: raw}, nil
}

// NewSuccess builds a success envelope, marshalling result unless it already is raw JSON.
func NewSuccess(id string, result interface{}) (*Envelope, error) {
	raw, err := toRaw(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	if raw == nil {
		raw = json.RawMessage("null")
	}

	return &Envelope{Kind: KindSuccess, ID: id, Result: raw}, nil
}

// NewError builds an error envelope. An empty id marks a failure that is not attributable to a call.
func NewError(id string, code int, message string) *Envelope {
	return &Envelope{Kind: KindError, ID: id, Error: &Error{Code: code, Message: message}}
}

type wireError struct {
	Code    *int    `json:"code"`
	Message *string `json:"message"`
}

type wire struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      *string         `json:"id,omitempty"`
	Method  *string         `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

// Encode serializes the envelope.
func Encode(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, errors.New("nil envelope")
	}

	w := wire{JSONRPC: Version}

	switch e.Kind {
	case KindRequest:
		if e.ID == "" || e.Method == "" {
			return nil, errors.New("request requires id and method")
		}

		w.ID, w.Method, w.Params = &e.ID, &e.Method, e.Params
	case KindSuccess:
		if e.ID == "" {
			return nil, errors.New("success requires id")
		}

		w.ID, w.Result = &e.ID, e.Result
		if len(w.Result) == 0 {
			w.Result = json.RawMessage("null")
		}
	case KindError:
		if e.Error == nil {
			return nil, errors.New("error envelope requires error member")
		}

		if e.ID != "" {
			w.ID = &e.ID
		}

		w.Error = &wireError{Code: &e.Error.Code, Message: &e.Error.Message}
	default:
		return nil, fmt.Errorf("unknown envelope kind %s", e.Kind)
	}

	return json.Marshal(&w)
}

// Decode parses a frame into an envelope. Every failure wraps ErrDecode.
func Decode(data []byte) (*Envelope, error) {
	var w wire

	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if w.JSONRPC != "" && w.JSONRPC != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrDecode, w.JSONRPC)
	}

	hasResult := len(w.Result) > 0

	switch {
	case w.Method != nil:
		if hasResult || w.Error != nil {
			return nil, fmt.Errorf("%w: request carries result or error", ErrDecode)
		}

		if *w.Method == "" {
			return nil, fmt.Errorf("%w: empty method", ErrDecode)
		}

		if w.ID == nil || *w.ID == "" {
			return nil, fmt.Errorf("%w: request without id", ErrDecode)
		}

		return &Envelope{Kind: KindRequest, ID: *w.ID, Method: *w.Method, Params: w.Params}, nil
	case w.Error != nil:
		if hasResult {
			return nil, fmt.Errorf("%w: both result and error present", ErrDecode)
		}

		if w.Error.Code == nil || w.Error.Message == nil {
			return nil, fmt.Errorf("%w: error member requires code and message", ErrDecode)
		}

		e := NewError("", *w.Error.Code, *w.Error.Message)
		if w.ID != nil {
			e.ID = *w.ID
		}

		return e, nil
	case hasResult:
		if w.ID == nil || *w.ID == "" {
			return nil, fmt.Errorf("%w: success without id", ErrDecode)
		}

		return &Envelope{Kind: KindSuccess, ID: *w.ID, Result: w.Result}, nil
	default:
		return nil, fmt.Errorf("%w: neither method, result nor error present", ErrDecode)
	}
}

// IsParseError reports whether a decode failure happened before the frame was
// recognised as JSON at all.
func IsParseError(data []byte) bool {
	return !json.Valid(data)
}

func toRaw(v interface{}) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return t, nil
	case []byte:
		if !json.Valid(t) {
			return nil, errors.New("invalid JSON")
		}

		return json.RawMessage(t), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		return b, nil
	}
}
