package approval

import (
	"context"
	"sync"

	"mend/internal/logging"
)

// Responder resolves approval requests, typically by surfacing them to
// the user. Respond blocks until a decision arrives or ctx is done.
type Responder interface {
	Respond(ctx context.Context, req *Request) (Decision, error)
}

// Previewer is an optional Responder extension that renders streaming
// previews of partially parsed tool requests. Previews are best-effort
// UI feedback; failures are swallowed.
type Previewer interface {
	Preview(req *Request)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, req *Request) (Decision, error)

func (f ResponderFunc) Respond(ctx context.Context, req *Request) (Decision, error) {
	return f(ctx, req)
}

// Gate routes approval requests through configured rules, a session
// decision cache, and finally the responder.
type Gate struct {
	mu        sync.RWMutex
	rules     *Rules
	responder Responder
	enabled   bool
	session   map[string]Decision
}

// NewGate creates a gate. A nil rules uses the defaults. When enabled is
// false every request auto-approves.
func NewGate(rules *Rules, responder Responder, enabled bool) *Gate {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Gate{
		rules:     rules,
		responder: responder,
		enabled:   enabled,
		session:   make(map[string]Decision),
	}
}

// Ask resolves consent for a pending action. The calling handler
// suspends until a decision is available; denial is a normal outcome,
// not an error.
func (g *Gate) Ask(ctx context.Context, req *Request) (bool, error) {
	if req.Partial {
		// Partial blocks only preview; they never suspend or commit.
		g.Preview(req)
		return false, nil
	}

	g.mu.RLock()
	enabled := g.enabled
	responder := g.responder
	cached, hasCached := g.session[cacheKey(req)]
	g.mu.RUnlock()

	if !enabled {
		return true, nil
	}

	if hasCached {
		return cached.Approved(), nil
	}

	switch g.rules.PolicyFor(req.Tool) {
	case LevelAllow:
		return true, nil
	case LevelDeny:
		logging.Info("action denied by rule", "tool", req.Tool, "kind", req.Kind)
		return false, nil
	}

	if responder == nil {
		// Nothing to ask; fail closed.
		return false, nil
	}

	decision, err := responder.Respond(ctx, req)
	if err != nil {
		return false, err
	}

	if decision == DecisionApproveSession || decision == DecisionDenySession {
		g.remember(cacheKey(req), decision)
	}

	return decision.Approved(), nil
}

// Preview pushes a non-committing streaming preview to the responder.
// Failures are deliberately ignored.
func (g *Gate) Preview(req *Request) {
	g.mu.RLock()
	responder := g.responder
	g.mu.RUnlock()

	p, ok := responder.(Previewer)
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Warn("approval preview panicked", "tool", req.Tool, "panic", r)
		}
	}()
	p.Preview(req)
}

// SetResponder replaces the responder.
func (g *Gate) SetResponder(r Responder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responder = r
}

// ClearSession drops all remembered session decisions.
func (g *Gate) ClearSession() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = make(map[string]Decision)
}

func (g *Gate) remember(key string, d Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session[key] = d
}
