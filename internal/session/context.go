package session

import (
	"sync"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Context holds the current recording session
type Context struct {
	mu      sync.RWMutex
	session *core.Session
}

// NewContext creates a Context with no session started
func NewContext() *Context {
	return &Context{session: &core.Session{Program: "none"}}
}

// Get returns a copy of the current session
func (c *Context) Get() core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.session
}

// ID returns the current session ID, zero before a session is started
func (c *Context) ID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.ID
}

// Set replaces the current session
func (c *Context) Set(s *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// SetProgram records the program the agent reported last
func (c *Context) SetProgram(program string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Program = program
}
