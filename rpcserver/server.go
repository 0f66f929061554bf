// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpcserver

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/GermanBionicSystems/brightnessd"
)

// Server accepts connections and dispatches each client's requests onto
// a single brightness.Controller. Every accepted connection gets its
// own Session, created on connect and destroyed on disconnect, matching
// spec.md §3's "Session is a client-held value" framing carried over
// the network rather than within one process.
//
// spec.md §6 also lists monitor/unmonitor among the RPC surface's
// operations; this server does not expose them. Controller.Monitor
// takes an in-process brightness.Observer, and the one-frame-in,
// one-frame-out protocol here has no notion of a server-pushed frame to
// carry the resulting OnChanged calls back to a remote client. Wiring
// it properly needs a streaming transport (a second response stream, or
// server-push frames keyed by a subscription id), which this length-
// prefixed request/response protocol doesn't provide.
type Server struct {
	ctrl *brightness.Controller
	ln   net.Listener
}

// New returns a Server dispatching onto ctrl, accepting connections from
// ln. The caller owns ln's lifetime; closing it unblocks Serve.
func New(ctrl *brightness.Controller, ln net.Listener) *Server {
	return &Server{ctrl: ctrl, ln: ln}
}

// Serve accepts connections until ln is closed, handling each on its own
// goroutine. It always returns a non-nil error except when ln was closed
// deliberately, in which case it returns nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("rpcserver: close connection: %v", err)
		}
	}()

	sess, err := s.ctrl.CreateSession()
	if err != nil {
		log.Printf("rpcserver: create session: %v", err)
		return
	}
	defer sess.Destroy()

	for {
		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			if err != io.EOF {
				log.Printf("rpcserver: read frame: %v", err)
			}
			return
		}
		resp := s.dispatch(sess, req)
		if err := WriteFrame(conn, resp); err != nil {
			log.Printf("rpcserver: write frame: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(sess *brightness.Session, req Request) Response {
	switch req.Op {
	case "set_target":
		if err := sess.SetTarget(req.Level, req.Rate); err != nil {
			return errResponse(err)
		}
		return Response{}
	case "get_target":
		level, rate, err := sess.GetTarget()
		if err != nil {
			return errResponse(err)
		}
		return Response{Level: level, Rate: rate}
	case "set_mode":
		m, err := parseMode(req.Mode)
		if err != nil {
			return errResponse(err)
		}
		if err := sess.SetMode(m); err != nil {
			return errResponse(err)
		}
		return Response{}
	case "get_mode":
		m, err := sess.GetMode()
		if err != nil {
			return errResponse(err)
		}
		return Response{Mode: m.String()}
	case "set_user_point":
		if err := sess.SetUserPoint(req.Lux, req.Target); err != nil {
			return errResponse(err)
		}
		return Response{}
	case "get_user_point":
		lux, target, err := sess.GetUserPoint()
		if err != nil {
			return errResponse(err)
		}
		return Response{Lux: lux, Target: target}
	case "turn_off":
		if err := sess.TurnOff(); err != nil {
			return errResponse(err)
		}
		return Response{}
	case "full_power":
		if err := sess.FullPower(); err != nil {
			return errResponse(err)
		}
		return Response{}
	case "current_level":
		level, err := s.ctrl.CurrentLevel()
		if err != nil {
			return errResponse(err)
		}
		return Response{Level: level}
	default:
		return errResponse(fmt.Errorf("rpcserver: unknown operation %q", req.Op))
	}
}

func parseMode(s string) (brightness.Mode, error) {
	switch s {
	case "auto":
		return brightness.Auto, nil
	case "manual":
		return brightness.Manual, nil
	default:
		return 0, fmt.Errorf("rpcserver: unknown mode %q", s)
	}
}

func errResponse(err error) Response {
	kind := "unknown"
	if k, ok := brightness.KindOf(err); ok {
		kind = k.String()
	}
	return Response{Error: &ErrorInfo{Kind: kind, Message: err.Error()}}
}
