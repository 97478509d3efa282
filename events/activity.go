// Package events forwards appended activity logs to subscribers outside the
// service (notifications, analytics).
package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"questify/models"
)

const SubjectPrefix = "questify.activity"

// Subject returns the subject an activity entry is published on,
// e.g. "questify.activity.earned_badge".
func Subject(l models.ActivityLog) string {
	action := strings.ReplaceAll(strings.TrimSpace(l.Action), ".", "_")
	if action == "" {
		action = "unknown"
	}
	return SubjectPrefix + "." + action
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes activity logs as JSON on core NATS.
type NATSSink struct {
	pub  publisher
	conn *nats.Conn
}

// ConnectNATS dials url and returns a sink that owns the connection.
func ConnectNATS(url string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("questify"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("⚠️  [EVENTS] NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("🔁 [EVENTS] NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to NATS at %s", url)
	}
	return &NATSSink{pub: conn, conn: conn}, nil
}

func (s *NATSSink) Publish(ctx context.Context, l models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(err, "marshal activity log")
	}
	subject := Subject(l)
	if err := s.pub.Publish(subject, data); err != nil {
		return errors.Wrapf(err, "publish %s", subject)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

// LogSink writes activity to the process log. Used when NATS is not configured.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, l models.ActivityLog) error {
	log.Printf("📣 [ACTIVITY] user=%s action=%s detail=%q xp=%d", l.UserID, l.Action, l.Detail, l.XPGained)
	return nil
}
