package pattern

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentweave/core"
)

// Contribution is one turn in a group chat thread.
type Contribution struct {
	AgentID string
	Text    string
}

// TurnStrategy decides which agent speaks next and when the discussion ends.
// Next receives the thread so far and the participant count; done ends the
// chat before the returned index is used.
type TurnStrategy interface {
	Name() string
	Next(thread []Contribution, agentCount int) (idx int, done bool)
}

// RoundRobin cycles through the participants for MaxRounds full cycles.
type RoundRobin struct {
	MaxRounds int
}

// Name implements TurnStrategy.
func (r RoundRobin) Name() string { return "round_robin" }

// Next implements TurnStrategy.
func (r RoundRobin) Next(thread []Contribution, agentCount int) (int, bool) {
	if len(thread) >= r.MaxRounds*agentCount {
		return 0, true
	}
	return len(thread) % agentCount, false
}

// ConsensusDriven stops once the latest contribution overlaps enough with a
// prior one (normalized token overlap >= Threshold) or MaxRounds full cycles
// elapse, whichever first. The scoring is a deliberate heuristic; swap the
// strategy for anything smarter.
type ConsensusDriven struct {
	Threshold float64
	MaxRounds int
}

// Name implements TurnStrategy.
func (c ConsensusDriven) Name() string { return "consensus_driven" }

// Next implements TurnStrategy.
func (c ConsensusDriven) Next(thread []Contribution, agentCount int) (int, bool) {
	if len(thread) >= c.MaxRounds*agentCount {
		return 0, true
	}
	if ConsensusScore(thread) >= c.Threshold && len(thread) >= agentCount {
		return 0, true
	}
	return len(thread) % agentCount, false
}

// ConsensusScore estimates agreement as the best normalized token overlap
// (Jaccard over lower-cased word sets) between the latest contribution and
// any earlier one. Empty threads score 0.
func ConsensusScore(thread []Contribution) float64 {
	if len(thread) < 2 {
		return 0
	}
	latest := tokenSet(thread[len(thread)-1].Text)
	best := 0.0
	for _, c := range thread[:len(thread)-1] {
		if score := jaccard(latest, tokenSet(c.Text)); score > best {
			best = score
		}
	}
	return best
}

// GroupChat lets a fixed set of agents take turns contributing to a shared
// thread. Every contribution is appended to the thread and becomes part of
// each subsequent agent's input, giving full visibility (unlike Sequential's
// curated previous_results).
type GroupChat struct {
	IDs      []string
	Strategy TurnStrategy
}

// NewGroupChat creates a round-robin group chat over the given agents.
func NewGroupChat(maxRounds int, agentIDs ...string) *GroupChat {
	return &GroupChat{IDs: agentIDs, Strategy: RoundRobin{MaxRounds: maxRounds}}
}

// Kind implements Pattern.
func (g *GroupChat) Kind() string { return "group_chat" }

// AgentIDs implements Pattern.
func (g *GroupChat) AgentIDs() []string { return g.IDs }

// Validate implements Pattern.
func (g *GroupChat) Validate() error {
	if len(g.IDs) < 2 {
		return &core.InvalidPatternConfigError{Pattern: g.Kind(), Reason: "at least two agent ids required"}
	}
	if g.Strategy == nil {
		return &core.InvalidPatternConfigError{Pattern: g.Kind(), Reason: "turn strategy required"}
	}
	switch s := g.Strategy.(type) {
	case RoundRobin:
		if s.MaxRounds < 1 {
			return &core.InvalidPatternConfigError{Pattern: g.Kind(), Reason: "max_rounds must be >= 1"}
		}
	case ConsensusDriven:
		if s.MaxRounds < 1 {
			return &core.InvalidPatternConfigError{Pattern: g.Kind(), Reason: "max_rounds must be >= 1"}
		}
		if s.Threshold <= 0 || s.Threshold > 1 {
			return &core.InvalidPatternConfigError{Pattern: g.Kind(), Reason: "consensus_threshold must be in (0, 1]"}
		}
	}
	return nil
}

// Run implements Pattern.
func (g *GroupChat) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	shared := ec.Clone()
	var thread []Contribution

	for {
		idx, done := g.Strategy.Next(thread, len(g.IDs))
		if done {
			break
		}
		if rt.Cancelled(ctx) {
			return rt.cancelledResult(map[string]any{"turns": len(thread)}), nil
		}

		id := g.IDs[idx]
		out, err := rt.InvokeRecorded(ctx, id, g.history(task, thread), shared)
		if err != nil {
			// A failed turn contributes nothing; the discussion continues.
			thread = append(thread, Contribution{AgentID: id})
			continue
		}
		thread = append(thread, Contribution{AgentID: id, Text: out.Text})
	}

	var lastText string
	failures := 0
	for _, c := range thread {
		if c.Text == "" {
			failures++
			continue
		}
		lastText = c.Text
	}

	status := core.StatusOK
	switch {
	case lastText == "":
		status = core.StatusError
	case failures > 0:
		status = core.StatusPartial
	}

	return &core.PatternResult{
		FinalText: lastText,
		Status:    status,
		Trace:     rt.Trace(),
		Metadata: map[string]any{
			"strategy":        g.Strategy.Name(),
			"turns":           len(thread),
			"consensus_score": ConsensusScore(thread),
		},
	}, nil
}

// history renders the shared thread: the original task followed by every
// contribution, speaker-tagged, as assistant messages.
func (g *GroupChat) history(task string, thread []Contribution) []core.Message {
	history := make([]core.Message, 0, len(thread)+1)
	history = append(history, core.UserMessage(task))
	for _, c := range thread {
		if c.Text == "" {
			continue
		}
		history = append(history, core.AssistantMessage(fmt.Sprintf("%s: %s", c.AgentID, c.Text)))
	}
	return history
}

func tokenSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(tok, ".,;:!?\"'()")] = struct{}{}
	}
	delete(set, "")
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
