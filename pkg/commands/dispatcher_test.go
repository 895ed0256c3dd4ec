package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

func newTestDispatcher(aps *fakeAudioPlays, auth *fakeAuth) *Dispatcher {
	return NewDispatcher(NewDefaultRegistry(Dependencies{
		Auth:       auth,
		AudioPlays: aps,
		Tokens:     tokens.NewMemoryStore(),
	}))
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in, cmd, args string
	}{
		{"/start", "/start", ""},
		{"/search doctor who", "/search", "doctor who"},
		{"  /search \t  doctor   who  ", "/search", "doctor   who"},
		{"/get\nabc", "/get", "abc"},
		{"hello", "hello", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, args := SplitCommand(tt.in)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestDispatcherEmptyMessage(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		aps := &fakeAudioPlays{}
		auth := &fakeAuth{}
		s := &recordingSender{}

		newTestDispatcher(aps, auth).Process(context.Background(), user, raw, s)

		assert.Equal(t, []string{EmptyMessageText}, s.texts())
		assert.Zero(t, aps.calls())
		assert.Zero(t, auth.loginCalls)
	}
}

func TestDispatcherCaseInsensitiveRouting(t *testing.T) {
	for _, cmd := range []string{"/search", "/Search", "/SEARCH", "/sEaRcH"} {
		t.Run(cmd, func(t *testing.T) {
			aps := &fakeAudioPlays{searchResult: api.Success(api.SearchAudioPlaysResponse{})}
			s := &recordingSender{}

			newTestDispatcher(aps, &fakeAuth{}).Process(context.Background(), user, cmd+" dalek", s)

			assert.Equal(t, 1, aps.searchCalls)
			assert.Equal(t, "dalek", aps.lastQuery)
		})
	}
}

func TestDispatcherUnknownCommands(t *testing.T) {
	for _, raw := range []string{"hello", "/unknown", "/searchx q", "search q", "/ get"} {
		t.Run(raw, func(t *testing.T) {
			aps := &fakeAudioPlays{}
			s := &recordingSender{}

			newTestDispatcher(aps, &fakeAuth{}).Process(context.Background(), user, raw, s)

			assert.Equal(t, []string{UnknownCommandText}, s.texts())
			assert.Zero(t, aps.calls())
		})
	}
}

func TestDispatcherButtonDataReentry(t *testing.T) {
	id := uuid.New()
	aps := &fakeAudioPlays{
		searchResult: api.Success(api.SearchAudioPlaysResponse{AudioPlays: []api.AudioPlay{{ID: id, Title: "Picked"}}}),
		getResult:    api.Success(api.AudioPlay{ID: id, Title: "Picked"}),
	}
	d := newTestDispatcher(aps, &fakeAuth{})
	s := &recordingSender{}

	d.Process(context.Background(), user, "/search picked", s)
	require.Len(t, s.msgs, 1)
	require.Len(t, s.msgs[0].msg.Buttons, 1)

	d.Process(context.Background(), user, s.msgs[0].msg.Buttons[0].Data, s)
	assert.Equal(t, 1, aps.getCalls)
	require.Len(t, s.msgs, 2)
	assert.Contains(t, s.msgs[1].msg.Text, "# Picked")
}

func TestDispatcherSwallowsHandlerFailures(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register("/fail", bot.HandlerFunc(func(context.Context, string, bot.IncomingMessage, bot.Sender) error {
		return errors.New("boom")
	}))
	reg.Register("/panic", bot.HandlerFunc(func(context.Context, string, bot.IncomingMessage, bot.Sender) error {
		panic("kaboom")
	}))
	reg.Register("/ok", bot.HandlerFunc(func(ctx context.Context, userID string, msg bot.IncomingMessage, s bot.Sender) error {
		s.SendMessage(ctx, userID, bot.TextMessage("ok "+msg.Text))
		return nil
	}))
	d := NewDispatcher(reg)
	s := &recordingSender{}

	assert.NotPanics(t, func() {
		d.Process(context.Background(), user, "/fail", s)
		d.Process(context.Background(), user, "/panic", s)
	})
	assert.Empty(t, s.msgs)

	d.Process(context.Background(), user, "/OK still works", s)
	assert.Equal(t, []string{"ok still works"}, s.texts())
}

func TestRegistryCommands(t *testing.T) {
	reg := NewDefaultRegistry(Dependencies{Tokens: tokens.NewMemoryStore()})
	assert.Equal(t, []string{"/get", "/login", "/search", "/start", "/token"}, reg.Commands())

	_, name := reg.Lookup("/whatever")
	assert.Equal(t, "unknown", name)
}
