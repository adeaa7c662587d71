/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/credbridge/credbridge/pkg/rpc/envelope"
)

// ServeHTTP upgrades the request to a websocket and serves it until the peer goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.authenticateOrigin(r); err != nil {
		logger.Infof("rejected rpc connection from %s : %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusForbidden)

		return
	}

	// the origin was checked above
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the rpc connection from %s : %v", r.RemoteAddr, err)

		return
	}

	logger.Debugf("rpc client %s connected", r.RemoteAddr)

	if err := s.ServeConn(r.Context(), conn); err != nil {
		logger.Infof("rpc connection from %s failed: %v", r.RemoteAddr, err)
	}

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil &&
		websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("closing rpc connection from %s: %v", r.RemoteAddr, err)
	}

	logger.Debugf("rpc client %s dropped", r.RemoteAddr)
}

// authenticateOrigin accepts requests without an Origin header, same host origins and origins
// whose host matches one of the configured patterns (path.Match syntax, case insensitive).
func (s *Server) authenticateOrigin(r *http.Request) error {
	if len(s.opts.originPatterns) == 0 {
		return nil
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}

	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("failed to parse Origin header %q: %w", origin, err)
	}

	if strings.EqualFold(r.Host, u.Host) {
		return nil
	}

	host := strings.ToLower(u.Host)

	for _, pattern := range s.opts.originPatterns {
		matched, err := path.Match(strings.ToLower(pattern), host)
		if err != nil {
			return fmt.Errorf("failed to parse origin pattern %q: %w", pattern, err)
		}

		if matched {
			return nil
		}
	}

	return fmt.Errorf("origin %q is not allowed", origin)
}

// ServeConn reads frames from conn until it fails, answering each on its own goroutine.
// It returns once every in-flight response was written. A normal closure returns nil.
func (s *Server) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	if s.opts.readLimit > 0 {
		conn.SetReadLimit(s.opts.readLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.metrics.connOpened()
	defer s.metrics.connClosed()

	var limiter *rate.Limiter
	if s.opts.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.rps), s.opts.burst)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			default:
				return fmt.Errorf("read frame: %w", err)
			}
		}

		if limiter != nil && !limiter.Allow() {
			s.metrics.reject(envelope.CodeRateLimited)
			s.reply(ctx, conn, encode(envelope.NewError(frameID(data), envelope.CodeRateLimited, msgRateLimited)))

			continue
		}

		wg.Add(1)

		go func(frame []byte) {
			defer wg.Done()

			s.reply(ctx, conn, s.Handle(frame))
		}(data)
	}
}

// reply writes one response. Concurrent writes on a websocket.Conn are serialized by the conn.
func (s *Server) reply(ctx context.Context, conn *websocket.Conn, frame []byte) {
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		logger.Debugf("write rpc response: %v", err)
	}
}
