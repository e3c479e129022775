package gotify

import (
	"context"
	"testing"

	"github.com/nextdhcp/nextpan/plugin/test"
	"github.com/stretchr/testify/assert"
)

func assertNotification(t *testing.T, n *notification, msg, title, srv, token string) {
	assert.Equal(t, srv, n.srv)
	assert.Equal(t, token, n.token)

	ctx, _ := test.WithReplacer(context.Background())

	if n.msg != nil {
		m, err := n.msg(ctx, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, msg, m)
	} else {
		assert.Equal(t, "", msg)
	}

	if n.title != nil {
		m, err := n.title(ctx, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, title, m)
	} else {
		assert.Equal(t, "", title)
	}
}

func TestGotifySetup(t *testing.T) {
	input := `
	gotify state == 'granted' {
		message "Some cool message"
		title "with an even better title"
		server http://gotify.com some-app-token
		priority 8
	}
	`
	g, err := makeGotifyPlugin(test.CreateTestBed(t, input))
	assert.NoError(t, err)
	assert.Len(t, g.notifications, 1)
	assert.NotNil(t, g.notifications[0].Matcher)
	assert.False(t, g.notifications[0].Matcher.Empty())
	assert.Equal(t, 8, g.notifications[0].priority)
	assertNotification(t, g.notifications[0], "Some cool message", "with an even better title", "http://gotify.com", "some-app-token")

	invalid := []string{
		`
	gotify {
		message
	}`,
		`
	gotify {
		title
	}`,
		`
	gotify {
		server
	}`,
		`
	gotify {
		server http://gotifiy.com
	}`,
		`
	gotify {
		unknown-key
	}`,
		`
	gotify {
		server http://gotify.com some-app-token
		priority 11
	}`,
		// msg must be set if condition is used
		`
	gotify state == 'granted' {
		title some-title
	}`,
		// no server configured
		`
	gotify {
		message "some message"
	}`,
	}

	for _, input := range invalid {
		_, err = makeGotifyPlugin(test.CreateTestBed(t, input))
		assert.Error(t, err, input)
	}

	input = `
	gotify {
		server http://gotify.com some-app-token
	}`
	_, err = makeGotifyPlugin(test.CreateTestBed(t, input))
	assert.NoError(t, err)

	// server and token configuration should propagate to notifications
	// defined below them
	input = `
	gotify {
		server http://gotify.com some-app-token
	}

	gotify {
		message "some message"
	}

	gotify {
		server http://example.com another-token
	}

	gotify {
		message "another message"
	}
	`
	g, err = makeGotifyPlugin(test.CreateTestBed(t, input))
	assert.NoError(t, err)
	assert.Len(t, g.notifications, 4)
	assertNotification(t, g.notifications[1], "some message", "", "http://gotify.com", "some-app-token")
	assertNotification(t, g.notifications[3], "another message", "", "http://example.com", "another-token")
}
