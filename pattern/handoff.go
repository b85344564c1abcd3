package pattern

import (
	"context"

	"github.com/hupe1980/agentweave/core"
)

// Route is one entry in a handoff routing table: when the predicate matches
// the just-produced output, control moves to the named agent.
type Route struct {
	When Predicate
	To   string
}

// Handoff starts at InitialAgent and, after each invocation, evaluates the
// routes declared for the current agent against its output. The first
// matching route wins; no match ends the pattern with the current output.
//
// MaxHandoffs is the sole loop-prevention mechanism: routing cycles are not
// detected beyond the transition counter. Reaching the bound ends the
// pattern with the last output and handoffs_exhausted=true in the metadata.
type Handoff struct {
	InitialAgent string
	Routes       map[string][]Route
	MaxHandoffs  int
}

// NewHandoff creates a handoff pattern starting at initialAgent.
func NewHandoff(initialAgent string, maxHandoffs int) *Handoff {
	return &Handoff{InitialAgent: initialAgent, Routes: map[string][]Route{}, MaxHandoffs: maxHandoffs}
}

// AddRoute appends a routing rule from one agent to another.
func (h *Handoff) AddRoute(from string, when Predicate, to string) *Handoff {
	h.Routes[from] = append(h.Routes[from], Route{When: when, To: to})
	return h
}

// Kind implements Pattern.
func (h *Handoff) Kind() string { return "handoff" }

// AgentIDs implements Pattern.
func (h *Handoff) AgentIDs() []string {
	seen := map[string]struct{}{}
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	add(h.InitialAgent)
	for from, routes := range h.Routes {
		add(from)
		for _, r := range routes {
			add(r.To)
		}
	}
	return ids
}

// Validate implements Pattern.
func (h *Handoff) Validate() error {
	if h.InitialAgent == "" {
		return &core.InvalidPatternConfigError{Pattern: h.Kind(), Reason: "initial agent required"}
	}
	if h.MaxHandoffs < 1 {
		return &core.InvalidPatternConfigError{Pattern: h.Kind(), Reason: "max_handoffs must be >= 1"}
	}
	for from, routes := range h.Routes {
		for _, r := range routes {
			if r.When == nil || r.To == "" {
				return &core.InvalidPatternConfigError{Pattern: h.Kind(), Reason: "route from " + from + " missing predicate or target"}
			}
		}
	}
	return nil
}

// Run implements Pattern.
func (h *Handoff) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	chain := []string{h.InitialAgent}
	chainCtx := ec.Clone()
	current := h.InitialAgent
	handoffs := 0
	exhausted := false

	var lastText string

	for {
		if rt.Cancelled(ctx) {
			return rt.cancelledResult(map[string]any{"handoff_chain": chain}), nil
		}

		out, err := rt.InvokeRecorded(ctx, current, []core.Message{core.UserMessage(task)}, chainCtx)
		if err != nil {
			return &core.PatternResult{
				FinalText: lastText,
				Status:    core.StatusError,
				Trace:     rt.Trace(),
				Metadata:  map[string]any{"handoff_chain": chain, "failed_agent": current, "error": err.Error()},
			}, nil
		}

		lastText = out.Text
		chainCtx = chainCtx.WithPreviousResult(core.AgentResult{AgentID: current, Text: out.Text})

		next := h.route(current, out)
		if next == "" {
			break
		}

		if handoffs == h.MaxHandoffs {
			exhausted = true
			break
		}

		handoffs++
		current = next
		chain = append(chain, next)
	}

	return &core.PatternResult{
		FinalText: lastText,
		Status:    core.StatusOK,
		Trace:     rt.Trace(),
		Metadata: map[string]any{
			"handoff_chain":      chain,
			"handoffs":           handoffs,
			"handoffs_exhausted": exhausted,
		},
	}, nil
}

func (h *Handoff) route(from string, out core.Message) string {
	for _, r := range h.Routes[from] {
		if r.When(out) {
			return r.To
		}
	}
	return ""
}
