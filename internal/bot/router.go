package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
)

// Router sends slash commands to their handlers and all other text to the
// conversation handler. Every route runs behind the same middleware chain.
type Router struct {
	mu          sync.RWMutex
	commands    map[string]handlers.Handler
	fallback    handlers.Handler
	middlewares []handlers.Middleware
	log         *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands: make(map[string]handlers.Handler),
		log:      log,
	}
}

// RegisterCommand routes each of commands (e.g. "/start") to h. Matching
// ignores case, arguments and the @botname suffix.
func (r *Router) RegisterCommand(h handlers.Handler, commands ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range commands {
		r.commands[strings.ToLower(cmd)] = h
	}
}

// Use appends middlewares; the first one registered runs outermost.
func (r *Router) Use(mws ...handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mws...)
}

// SetDefault sets the handler for plain text and unknown commands.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Route is the telebot endpoint for text updates.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	r.mu.RLock()
	h := r.match(c.Text())
	chain := r.middlewares
	r.mu.RUnlock()

	if h == nil {
		r.log.Debug("no handler for update")
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	return h(c)
}

func (r *Router) match(text string) handlers.Handler {
	if strings.HasPrefix(text, "/") {
		if h, ok := r.commands[strings.ToLower(commandOf(text))]; ok {
			return h
		}
	}
	return r.fallback
}

// commandOf strips arguments and the @botname suffix from a command.
func commandOf(text string) string {
	if i := strings.IndexAny(text, " @"); i > 0 {
		return text[:i]
	}
	return text
}
