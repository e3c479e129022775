package gotify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/gotify/go-api-client/v2/auth"
	"github.com/gotify/go-api-client/v2/client/message"
	"github.com/gotify/go-api-client/v2/gotify"
	"github.com/gotify/go-api-client/v2/models"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/matcher"
	"github.com/nextdhcp/nextpan/core/replacer"
	"github.com/nextdhcp/nextpan/plugin"
)

const (
	defaultTitle    = "NextPAN"
	defaultPriority = 5
)

type (
	// msgFactory creates the gotify notification message
	// from the given indication and response
	msgFactory func(ctx context.Context, req mac.Payload, res *mac.AssociateResponse) (string, error)

	// gotifyPlugin matches indications against a set of conditions
	// and sends notifications. It implements the plugin.Handler
	// interface
	gotifyPlugin struct {
		next          plugin.Handler
		notifications []*notification
		l             log.Logger
		wg            sync.WaitGroup
	}

	// notification combines the matcher (condition) and a message
	// factory for a gotify notification
	notification struct {
		*matcher.Matcher
		msg      msgFactory
		title    msgFactory
		srv      string
		token    string
		priority int
	}
)

// notify posts msg to the gotify server at srv. Replaced in tests
var notify = func(srv *url.URL, token string, msg *message.CreateMessageParams) error {
	cli := gotify.NewClient(srv, &http.Client{})

	_, err := cli.Message.CreateMessage(msg, auth.TokenAuth(token))
	return err
}

// Prepare checks if we should send a notification for the given indication and returns
// the message body. An empty message body indicates that no notification should be
// sent
func (n *notification) Prepare(ctx context.Context, req mac.Payload, res *mac.AssociateResponse) (string, string, error) {
	if n.msg == nil {
		return "", "", nil
	}

	matched, err := n.Match(ctx, req, res)
	if err != nil {
		return "", "", err
	}

	if matched {
		msg, err := n.msg(ctx, req, res)
		if err != nil {
			return "", "", err
		}

		var title string

		if n.title != nil {
			title, _ = n.title(ctx, req, res)
		}

		if title == "" {
			title = defaultTitle
		}

		return title, msg, nil
	}

	return "", "", nil
}

// Send posts a notification to the gotify server of n
func (n *notification) Send(title, msg string) error {
	gotifyURL, err := url.Parse(n.srv)
	if err != nil {
		return err
	}

	priority := n.priority
	if priority == 0 {
		priority = defaultPriority
	}

	params := message.NewCreateMessageParams()
	params.Body = &models.MessageExternal{
		Title:    title,
		Message:  msg,
		Priority: priority,
	}

	return notify(gotifyURL, n.token, params)
}

// addNotification adds a new notification to the gotify plugin
func (g *gotifyPlugin) addNotification(n *notification) {
	g.notifications = append(g.notifications, n)
}

// findLastCreds returns the last credentials used for a notification
func (g *gotifyPlugin) findLastCreds() (string, string, bool) {
	if len(g.notifications) == 0 {
		return "", "", false
	}

	last := g.notifications[len(g.notifications)-1]
	return last.srv, last.token, true
}

// Name returns "gotify" and implements plugin.Handler
func (g *gotifyPlugin) Name() string {
	return "gotify"
}

// ServeWPAN checks if we should send a notification for the indication
func (g *gotifyPlugin) ServeWPAN(ctx context.Context, req mac.Payload, res *mac.AssociateResponse) error {
	// let the whole handler chain pass through
	err := g.next.ServeWPAN(ctx, req, res)
	if err != nil && !errors.Is(err, coordinator.ErrNoResponse) {
		return err
	}

	l := log.With(ctx, g.l)

	for _, n := range g.notifications {
		title, body, err := n.Prepare(ctx, req, res)
		if err != nil {
			l.Warnf("failed to prepare notification: %s", err.Error())
			continue
		}

		if body == "" {
			continue
		}

		// kick of notifications in dedicated go routines
		g.wg.Add(1)
		go func(n *notification) {
			defer g.wg.Done()

			l.Debugf("sending notification: %s\n%s", title, body)

			if err := n.Send(title, body); err != nil {
				l.Warnf("failed to send notification: %s", err.Error())
			} else {
				l.Debugf("notification sent via %s: %s", n.srv, title)
			}
		}(n)
	}

	return err
}

// Close waits for all pending notifications
func (g *gotifyPlugin) Close() error {
	g.wg.Wait()
	return nil
}

func templateFactory(s string) msgFactory {
	return func(ctx context.Context, req mac.Payload, res *mac.AssociateResponse) (string, error) {
		return replacer.NewReplacer(ctx, req, res).Replace(s), nil
	}
}
