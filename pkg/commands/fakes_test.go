package commands

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
)

type sent struct {
	userID string
	msg    bot.Message
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordingSender) SendMessage(_ context.Context, userID string, msg bot.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{userID: userID, msg: msg})
}

func (r *recordingSender) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.msg.Text)
	}
	return out
}

type fakeAudioPlays struct {
	getResult      api.Result[api.AudioPlay]
	searchResult   api.Result[api.SearchAudioPlaysResponse]
	locationResult api.Result[api.AudioPlayLocation]

	getCalls      int
	searchCalls   int
	locationCalls int
	lastQuery     string
	lastLimit     int
	lastToken     string
}

func (f *fakeAudioPlays) Get(_ context.Context, _ uuid.UUID) api.Result[api.AudioPlay] {
	f.getCalls++
	return f.getResult
}

func (f *fakeAudioPlays) Search(_ context.Context, query string, limit int) api.Result[api.SearchAudioPlaysResponse] {
	f.searchCalls++
	f.lastQuery = query
	f.lastLimit = limit
	return f.searchResult
}

func (f *fakeAudioPlays) GetLocation(_ context.Context, token string, _ uuid.UUID) api.Result[api.AudioPlayLocation] {
	f.locationCalls++
	f.lastToken = token
	return f.locationResult
}

func (f *fakeAudioPlays) calls() int {
	return f.getCalls + f.searchCalls + f.locationCalls
}

type fakeAuth struct {
	loginResult api.Result[api.AuthenticateUserResponse]
	loginCalls  int
	lastRequest api.AuthenticateUserRequest
}

func (f *fakeAuth) Login(_ context.Context, req api.AuthenticateUserRequest) api.Result[api.AuthenticateUserResponse] {
	f.loginCalls++
	f.lastRequest = req
	return f.loginResult
}

func (f *fakeAuth) Register(_ context.Context, _ api.CreateUserRequest) api.Result[api.AuthenticateUserResponse] {
	return api.Absent[api.AuthenticateUserResponse]()
}

type fakeCovers struct {
	data  []byte
	ok    bool
	calls int
}

func (f *fakeCovers) FetchCover(_ context.Context, _ string) ([]byte, bool) {
	f.calls++
	return f.data, f.ok
}

func liveToken(sub string) string {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	return token
}
