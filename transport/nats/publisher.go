package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wricardo/multiplayer-chess/game/service"
)

// DefaultPrefix is the subject root for game events.
const DefaultPrefix = "chess.games"

var _ service.Notifier = (*Publisher)(nil)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher forwards service events to NATS subjects of the form
// <prefix>.<game id>.<event>.
type Publisher struct {
	conn   Conn
	prefix string
}

// Connect dials a NATS server with reconnect settings suited to a long
// running publisher.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NewPublisher creates a publisher. An empty prefix means DefaultPrefix.
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Notify implements service.Notifier. Failures are logged; the game
// change has already been stored.
func (p *Publisher) Notify(ctx context.Context, ev service.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to encode %s event for game %s: %v", ev.Type, ev.GameID, err)
		return
	}
	subject := Subject(p.prefix, ev.GameID, ev.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("Failed to publish to %s: %v", subject, err)
	}
}

// Subject builds the subject for one game event. Characters NATS treats
// as separators or wildcards are replaced in the game id.
func Subject(prefix, gameID, event string) string {
	return prefix + "." + token(gameID) + "." + token(event)
}

// GameSubject matches every event of one game.
func GameSubject(prefix, gameID string) string {
	return prefix + "." + token(gameID) + ".>"
}

var tokenReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

func token(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}

// Subscribe calls fn for every event published for gameID. An empty
// gameID follows all games.
func Subscribe(nc *nats.Conn, prefix, gameID string, fn func(service.Event)) (*nats.Subscription, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	subject := prefix + ".>"
	if gameID != "" {
		subject = GameSubject(prefix, gameID)
	}
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := DecodeEvent(msg.Data)
		if err != nil {
			log.Printf("Ignoring malformed event on %s: %v", msg.Subject, err)
			return
		}
		fn(ev)
	})
}

// DecodeEvent parses a published event.
func DecodeEvent(data []byte) (service.Event, error) {
	var ev service.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return service.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
