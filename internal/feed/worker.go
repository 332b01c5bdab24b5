// Package feed consumes conversion requests from a NATS subject.
//
// Each message body is a JSON request as accepted by POST /api/v1/process.
// When the message carries a reply subject the JSON response is sent back.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"billete/internal/convert"
	"billete/internal/logger"
)

// Converter is the part of convert.Service the worker needs.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (*convert.Response, error)
}

// Config holds the subscription settings.
type Config struct {
	URL     string
	Subject string
	Queue   string
	Timeout time.Duration // per message
}

// Reply is the message published on the reply subject.
type Reply struct {
	*convert.Response
	Error string `json:"error,omitempty"`
}

// Worker is a queue subscriber. Several workers on the same queue share the
// load.
type Worker struct {
	conv Converter
	cfg  Config
	log  logger.Logger
}

// NewWorker creates a worker.
func NewWorker(conv Converter, cfg Config, log logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Worker{conv: conv, cfg: cfg, log: log}
}

// Run connects, subscribes and blocks until ctx is cancelled. Pending
// messages are drained before it returns.
func (w *Worker) Run(ctx context.Context) error {
	if w.cfg.Subject == "" {
		return errors.New("feed: subject is required")
	}

	nc, err := nats.Connect(w.cfg.URL,
		nats.Name("billete"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				w.log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			w.log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}

	sub, err := nc.QueueSubscribe(w.cfg.Subject, w.cfg.Queue, func(msg *nats.Msg) {
		out := w.handle(ctx, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(out); err != nil {
			w.log.Warn("nats reply failed", "subject", msg.Reply, "error", err)
		}
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe %s: %w", w.cfg.Subject, err)
	}
	w.log.Info("feed subscribed", "subject", w.cfg.Subject, "queue", w.cfg.Queue)

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		w.log.Warn("nats subscription drain failed", "error", err)
	}
	if err := nc.Drain(); err != nil {
		nc.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// handle converts one message body and returns the encoded reply.
func (w *Worker) handle(ctx context.Context, data []byte) []byte {
	var reply Reply

	var req convert.Request
	if err := json.Unmarshal(data, &req); err != nil {
		reply.Error = "invalid request: " + err.Error()
		return encode(reply)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.Timeout)
	defer cancel()

	resp, err := w.conv.Convert(ctx, req)
	if err != nil {
		w.log.Debug("feed conversion failed", "error", err)
		reply.Error = err.Error()
		return encode(reply)
	}
	reply.Response = resp
	return encode(reply)
}

func encode(r Reply) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Reply{Error: err.Error()})
	}
	return b
}
