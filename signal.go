package exhibit

// Signal is a synchronous broadcast notification. Callbacks run on the
// goroutine that calls Emit, in the order they were connected. Providers emit
// their signals from Update, so callbacks always run on the render thread.
type Signal struct {
	conns []*Connection
}

// Connection is the cancellation token returned by Signal.Connect.
type Connection struct {
	signal *Signal
	fn     func()
}

// Connect registers fn and returns a token that removes it again.
func (s *Signal) Connect(fn func()) *Connection {
	if fn == nil {
		panic("exhibit: cannot connect nil callback")
	}
	c := &Connection{signal: s, fn: fn}
	s.conns = append(s.conns, c)
	return c
}

// Disconnect removes the callback from its signal. Safe to call more than
// once and from inside the callback itself.
func (c *Connection) Disconnect() {
	if c == nil || c.signal == nil {
		return
	}
	c.signal.remove(c)
	c.signal = nil
	c.fn = nil
}

// Connected reports whether the callback is still registered.
func (c *Connection) Connected() bool {
	return c != nil && c.signal != nil
}

// Emit calls every connected callback. A callback disconnected by an earlier
// callback during the same Emit is skipped.
func (s *Signal) Emit() {
	if len(s.conns) == 0 {
		return
	}
	// Snapshot so callbacks may connect or disconnect while we iterate.
	snapshot := make([]*Connection, len(s.conns))
	copy(snapshot, s.conns)
	for _, c := range snapshot {
		if c.signal != s {
			continue
		}
		c.fn()
	}
}

// Len returns the number of live connections.
func (s *Signal) Len() int {
	return len(s.conns)
}

// DisconnectAll removes every callback.
func (s *Signal) DisconnectAll() {
	for _, c := range s.conns {
		c.signal = nil
		c.fn = nil
	}
	s.conns = nil
}

func (s *Signal) remove(c *Connection) {
	for i, cc := range s.conns {
		if cc == c {
			copy(s.conns[i:], s.conns[i+1:])
			s.conns[len(s.conns)-1] = nil
			s.conns = s.conns[:len(s.conns)-1]
			return
		}
	}
}
