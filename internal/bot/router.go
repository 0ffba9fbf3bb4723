package bot

import (
	"context"
	"strings"
)

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventCallback
)

// Event is an inbound update reduced to what the handlers need.
type Event struct {
	ID       string // correlation id for logs
	Kind     EventKind
	UserID   int64
	ChatID   int64
	Username string
	Name     string // command name without the slash, or callback data
	Args     string
	Text     string
}

type Button struct {
	Text string
	Data string // callback data
	URL  string
}

// Reply is one outbound message.
type Reply struct {
	Text    string
	Buttons [][]Button
}

type HandlerFunc func(ctx context.Context, ev Event) ([]Reply, error)

const fallbackRoute = "fallback"

// Router maps commands and callback data to handlers. Anything without a
// route goes to the single fallback.
type Router struct {
	commands  map[string]HandlerFunc
	callbacks map[string]HandlerFunc
	fallback  HandlerFunc
}

func NewRouter(fallback HandlerFunc) *Router {
	return &Router{
		commands:  make(map[string]HandlerFunc),
		callbacks: make(map[string]HandlerFunc),
		fallback:  fallback,
	}
}

func (r *Router) Command(name string, h HandlerFunc) {
	r.commands[name] = h
}

func (r *Router) Callback(data string, h HandlerFunc) {
	r.callbacks[data] = h
}

// Dispatch runs the handler for ev and returns the route it took.
func (r *Router) Dispatch(ctx context.Context, ev Event) (string, []Reply, error) {
	var (
		h  HandlerFunc
		ok bool
	)
	switch ev.Kind {
	case EventCommand:
		h, ok = r.commands[ev.Name]
	case EventCallback:
		h, ok = r.callbacks[ev.Name]
	}
	if !ok {
		if r.fallback == nil {
			return fallbackRoute, nil, nil
		}
		replies, err := r.fallback(ctx, ev)
		return fallbackRoute, replies, err
	}

	replies, err := h(ctx, ev)
	return ev.Name, replies, err
}

// ParseCommand splits "/name@bot args" into name and args. ok is false for
// text that is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(strings.TrimPrefix(head, "/"), "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(rest), true
}
