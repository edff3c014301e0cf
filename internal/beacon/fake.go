package beacon

// FakeConn is a Conn for tests: Publish pushes a payload straight into the
// registered handler.
type FakeConn struct {
	Topic   string
	Closed  bool
	handler func([]byte)

	// SubscribeError, if set, is returned by Subscribe.
	SubscribeError error
}

// NewFakeConn creates a FakeConn.
func NewFakeConn() *FakeConn {
	return &FakeConn{}
}

// Subscribe records the handler.
func (f *FakeConn) Subscribe(topic string, handler func(payload []byte)) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.Topic = topic
	f.handler = handler
	return nil
}

// Publish delivers a payload to the subscribed handler, if any.
func (f *FakeConn) Publish(payload []byte) {
	if f.handler != nil && !f.Closed {
		f.handler(payload)
	}
}

// Close marks the connection closed; later publishes are dropped.
func (f *FakeConn) Close() error {
	f.Closed = true
	return nil
}
