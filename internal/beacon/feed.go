package beacon

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sink receives parsed sightings. Implemented by presence.Registry.
type Sink interface {
	RecordSighting(id ID, at time.Time)
}

// Conn is the subscription transport for advert payloads.
type Conn interface {
	// Subscribe registers a handler for every message on the topic.
	Subscribe(topic string, handler func(payload []byte)) error

	// Close tears down the connection. No handler runs after Close returns.
	Close() error
}

// Feed subscribes to the scanner's advert topic and forwards each valid
// sighting to the sink, stamped with the arrival time.
type Feed struct {
	conn  Conn
	topic string
	sink  Sink
	now   func() time.Time
}

// NewFeed creates a feed over an established connection.
func NewFeed(conn Conn, topic string, sink Sink) *Feed {
	return &Feed{conn: conn, topic: topic, sink: sink, now: time.Now}
}

// Start subscribes to the advert topic.
func (f *Feed) Start() error {
	log.Info().Str("topic", f.topic).Msg("Subscribing to beacon adverts")
	return f.conn.Subscribe(f.topic, f.handle)
}

// Stop closes the underlying connection and with it the subscription.
func (f *Feed) Stop() error {
	log.Info().Msg("Stopping beacon feed")
	return f.conn.Close()
}

func (f *Feed) handle(payload []byte) {
	id, err := ParseAdvert(payload)
	if err != nil {
		// Scanner noise, not an error condition.
		log.Debug().Err(err).Msg("Dropping unparseable advert")
		return
	}
	f.sink.RecordSighting(id, f.now())
}
