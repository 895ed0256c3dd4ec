package commands

import (
	"sort"
	"strings"
	"sync"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

const (
	CommandStart  = "/start"
	CommandLogin  = "/login"
	CommandToken  = "/token"
	CommandSearch = "/search"
	CommandGet    = "/get"

	unknownName = "unknown"
)

// Registry maps lowercase command words to handlers. Lookups that miss
// fall back to the unknown-command handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]bot.Handler
	fallback bot.Handler
}

func NewRegistry(fallback bot.Handler) *Registry {
	if fallback == nil {
		fallback = NewUnknownHandler()
	}
	return &Registry{
		handlers: make(map[string]bot.Handler),
		fallback: fallback,
	}
}

func (r *Registry) Register(command string, h bot.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(command)] = h
}

// Lookup returns the handler for command and the name it is registered
// under ("unknown" for the fallback). Matching ignores case.
func (r *Registry) Lookup(command string) (bot.Handler, string) {
	key := strings.ToLower(command)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[key]; ok {
		return h, key
	}
	return r.fallback, unknownName
}

func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dependencies are the collaborators the built-in handlers need.
type Dependencies struct {
	Auth       api.AuthenticationService
	AudioPlays api.AudioPlayService
	Tokens     tokens.Store
	Covers     CoverFetcher
}

// NewDefaultRegistry registers every built-in command.
func NewDefaultRegistry(deps Dependencies) *Registry {
	r := NewRegistry(NewUnknownHandler())
	r.Register(CommandStart, NewStartHandler())
	r.Register(CommandLogin, NewLoginHandler(deps.Auth, deps.Tokens))
	r.Register(CommandToken, NewTokenHandler(deps.Tokens))
	r.Register(CommandSearch, NewSearchHandler(deps.AudioPlays))
	r.Register(CommandGet, NewGetHandler(deps.AudioPlays, deps.Tokens, deps.Covers))
	return r
}
