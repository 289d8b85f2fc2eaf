// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers the transactional emails of the identity subsystem
(verification links, password-reset links).

Delivery is fire-and-forget from the caller's perspective: a failed send is
logged by the caller and never rolls back the token it carries.
*/
package mail

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Message is one outbound plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Dispatcher sends a [Message].
type Dispatcher interface {
	Send(context stdctx.Context, message Message) error
}

// # SMTP

// SMTPConfig holds the connection settings for [SMTPDispatcher].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher sends mail through an SMTP relay.
type SMTPDispatcher struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPDispatcher validates config and returns a dispatcher.
//
// A connection is opened per message; the volume here is a handful of mails
// per user lifetime.
func NewSMTPDispatcher(config SMTPConfig, logger *slog.Logger) (*SMTPDispatcher, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("mail: SMTP host is required")
	}
	if config.From == "" {
		return nil, fmt.Errorf("mail: sender address is required")
	}
	return &SMTPDispatcher{config: config, logger: logger}, nil
}

// Send implements [Dispatcher].
func (dispatcher *SMTPDispatcher) Send(context stdctx.Context, message Message) error {
	msg, err := dispatcher.build(message)
	if err != nil {
		return err
	}

	options := []gomail.Option{
		gomail.WithPort(dispatcher.config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if dispatcher.config.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(dispatcher.config.Username),
			gomail.WithPassword(dispatcher.config.Password),
		)
	}

	client, err := gomail.NewClient(dispatcher.config.Host, options...)
	if err != nil {
		return fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(context, msg); err != nil {
		return fmt.Errorf("mail: send failed: %w", err)
	}

	dispatcher.logger.InfoContext(context, "mail_sent", slog.String("subject", message.Subject))
	return nil
}

func (dispatcher *SMTPDispatcher) build(message Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(dispatcher.config.From); err != nil {
		return nil, fmt.Errorf("mail: invalid sender: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, message.Body)
	return msg, nil
}

// # Background Delivery

// AsyncDispatcher hands messages to another [Dispatcher] on a goroutine, so
// callers never wait on the relay and delivery time cannot reveal whether a
// mail was sent at all.
type AsyncDispatcher struct {
	next    Dispatcher
	timeout time.Duration
	logger  *slog.Logger
	group   sync.WaitGroup
}

// NewAsyncDispatcher wraps next. Each delivery is bounded by timeout.
func NewAsyncDispatcher(next Dispatcher, timeout time.Duration, logger *slog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{next: next, timeout: timeout, logger: logger}
}

// Send implements [Dispatcher]. It always returns nil; failures are logged.
func (dispatcher *AsyncDispatcher) Send(context stdctx.Context, message Message) error {
	// Detach from the request so delivery survives the response being written.
	detached := stdctx.WithoutCancel(context)

	dispatcher.group.Add(1)
	go func() {
		defer dispatcher.group.Done()

		deliveryContext, cancel := stdctx.WithTimeout(detached, dispatcher.timeout)
		defer cancel()

		if err := dispatcher.next.Send(deliveryContext, message); err != nil {
			dispatcher.logger.ErrorContext(deliveryContext, "mail_delivery_failed",
				slog.String("subject", message.Subject),
				slog.Any("error", err),
			)
		}
	}()

	return nil
}

// Close blocks until every in-flight delivery has finished.
func (dispatcher *AsyncDispatcher) Close() {
	dispatcher.group.Wait()
}

// # Development

// LogDispatcher writes messages to the log instead of sending them.
//
// Only for local development: the body contains live tokens.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher returns a [LogDispatcher].
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Send implements [Dispatcher].
func (dispatcher *LogDispatcher) Send(context stdctx.Context, message Message) error {
	dispatcher.logger.InfoContext(context, "mail_logged",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.Body),
	)
	return nil
}
