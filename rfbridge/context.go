// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"
)

// Context is an engine session: the handle through which every operation in
// this package reaches the distributed compute runtime. It is cheap to pass
// by pointer and safe for concurrent use to the extent the underlying Engine
// is; the gateway-backed engine serializes its own transport access.
type Context struct {
	engine  Engine
	gateway *Gateway
	closer  io.Closer
}

// NewContext creates a session over an existing Engine implementation.
// Production code uses [Connect] or [Dial]; tests pass in-memory engines.
func NewContext(engine Engine) *Context {
	return &Context{engine: engine}
}

// Connect creates a session over an engine transport, typically the stdio
// pipes of a spawned engine process.
func Connect(rw io.ReadWriter) *Context {
	g := NewGateway(rw)
	return &Context{engine: NewEngineStub(g), gateway: g}
}

// Dial connects to an engine listening on a network address.
func Dial(network, addr string) (*Context, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("dialing engine: %w", err)
	}
	c := Connect(conn)
	c.closer = conn
	return c, nil
}

// Engine returns the session's engine call surface.
func (c *Context) Engine() Engine {
	return c.engine
}

// Gateway returns the underlying gateway, or nil for sessions built over an
// in-memory Engine.
func (c *Context) Gateway() *Gateway {
	return c.gateway
}

// Close releases the session's transport, if it owns one.
func (c *Context) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// activeContext is the process-wide engine binding. One engine per process;
// set at initialization and read-only thereafter, except in tests.
var activeContext atomic.Pointer[Context]

// Bind makes c the process-wide active context. Tiles reconstructed outside
// a normal call path (e.g. on worker processes) resolve the engine through
// this binding.
func Bind(c *Context) {
	activeContext.Store(c)
}

// Unbind clears the process-wide binding.
func Unbind() {
	activeContext.Store(nil)
}

// Active returns the process-wide bound context, or ErrNoActiveContext.
func Active() (*Context, error) {
	c := activeContext.Load()
	if c == nil {
		return nil, ErrNoActiveContext
	}
	return c, nil
}
