package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Sender delivers one message to the staff channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Notifier is the fire-and-forget port used by the borrowing and payment services.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Dispatcher sends each message on its own goroutine. Delivery errors are
// logged and never reach the caller.
type Dispatcher struct {
	sender  Sender
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wires the sender used for every notification.
func NewDispatcher(sender Sender, logg *logger.Logger, timeout time.Duration) (*Dispatcher, error) {
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification sender required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{sender: sender, logg: logg, timeout: timeout}, nil
}

// Notify returns immediately. The send outlives the request context but keeps its values.
func (d *Dispatcher) Notify(ctx context.Context, text string) {
	if d == nil || text == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.sender.Send(sendCtx, text); err != nil {
			d.logg.Error(sendCtx, "notification delivery failed", err)
		}
	}()
}

// Send delivers synchronously with the dispatcher timeout. Jobs use it to
// report delivery failures in their own run result.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.sender.Send(sendCtx, text)
}

// Wait blocks until every in-flight notification finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// LogSender writes messages to the log. Used when no chat credentials are configured.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a sender backed by the service logger.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, text string) error {
	if s == nil || s.logg == nil {
		return nil
	}
	ctx = s.logg.WithField(ctx, "notification", text)
	s.logg.Info(ctx, "notification")
	return nil
}
