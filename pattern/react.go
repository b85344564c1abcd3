package pattern

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentweave/core"
)

// SuccessCriteriaKey is the ExecutionContext key holding the caller's
// free-form success criteria for a ReAct run.
const SuccessCriteriaKey = "success_criteria"

// ReAct runs the Observe -> Think -> Act -> Reflect loop, bounded by
// MaxIterations. Think proposes the next action as free text, Act executes
// it, Reflect assesses goal completion; the loop ends when the reflect
// predicate signals success or iterations are exhausted, whichever first.
//
// Each sub-step produces its own StepRecord, so one iteration yields up to
// four trace entries. An error in any sub-step aborts the current iteration;
// unless FailFast the pattern proceeds to the next iteration with the failed
// step treated as an empty contribution.
type ReAct struct {
	ThinkID       string
	ActID         string
	ReflectID     string
	MaxIterations int
	FailFast      bool
	// ReflectSuccess decides whether the reflect output signals goal
	// completion. Matching semantics are caller-supplied; the default
	// affirmative-keyword check is a convenience meant to be replaced with
	// structured-output parsing or a classifier agent.
	ReflectSuccess Predicate
}

// NewReAct creates a ReAct loop using one agent for all three roles.
func NewReAct(agentID string, maxIterations int) *ReAct {
	return &ReAct{ThinkID: agentID, ActID: agentID, ReflectID: agentID, MaxIterations: maxIterations}
}

// Kind implements Pattern.
func (r *ReAct) Kind() string { return "react" }

// AgentIDs implements Pattern.
func (r *ReAct) AgentIDs() []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, id := range []string{r.ThinkID, r.ActID, r.ReflectID} {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Validate implements Pattern.
func (r *ReAct) Validate() error {
	if r.MaxIterations <= 0 {
		return &core.InvalidPatternConfigError{Pattern: r.Kind(), Reason: "max_iterations must be >= 1"}
	}
	if r.ThinkID == "" || r.ActID == "" || r.ReflectID == "" {
		return &core.InvalidPatternConfigError{Pattern: r.Kind(), Reason: "think, act and reflect agent ids required"}
	}
	return nil
}

// DefaultReflectSuccess is the fallback reflect predicate: it accepts
// outputs opening with an affirmative or containing an explicit completion
// marker.
func DefaultReflectSuccess(m core.Message) bool {
	text := strings.ToLower(strings.TrimSpace(m.Text))
	if strings.HasPrefix(text, "yes") {
		return true
	}
	return strings.Contains(text, "goal achieved") || strings.Contains(text, "task complete")
}

// Run implements Pattern.
func (r *ReAct) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	reflectSuccess := r.ReflectSuccess
	if reflectSuccess == nil {
		reflectSuccess = DefaultReflectSuccess
	}

	loopCtx := ec.Clone()
	terminal := "exhausted"
	var lastActText string
	iterations := 0

	for i := 0; i < r.MaxIterations; i++ {
		if rt.Cancelled(ctx) {
			return rt.cancelledResult(map[string]any{"iterations": iterations}), nil
		}
		iterations++

		observation := r.observe(rt, task, loopCtx, i+1)

		thought, err := rt.InvokeRecorded(ctx, r.ThinkID,
			[]core.Message{core.UserMessage(thinkPrompt(task, observation))}, loopCtx)
		if err != nil {
			if r.FailFast {
				return r.failed(rt, iterations, err), nil
			}
			loopCtx = loopCtx.WithPreviousResult(core.AgentResult{AgentID: r.ThinkID})
			continue
		}

		action, err := rt.InvokeRecorded(ctx, r.ActID,
			[]core.Message{core.UserMessage(actPrompt(task, thought.Text))}, loopCtx)
		if err != nil {
			if r.FailFast {
				return r.failed(rt, iterations, err), nil
			}
			loopCtx = loopCtx.WithPreviousResult(core.AgentResult{AgentID: r.ActID})
			continue
		}
		lastActText = action.Text
		loopCtx = loopCtx.WithPreviousResult(core.AgentResult{AgentID: r.ActID, Text: action.Text})

		reflection, err := rt.InvokeRecorded(ctx, r.ReflectID,
			[]core.Message{core.UserMessage(reflectPrompt(task, action.Text, loopCtx))}, loopCtx)
		if err != nil {
			if r.FailFast {
				return r.failed(rt, iterations, err), nil
			}
			continue
		}

		if reflectSuccess(reflection) {
			terminal = "achieved"
			break
		}
	}

	status := core.StatusOK
	if terminal == "exhausted" {
		status = core.StatusPartial
		if lastActText == "" {
			status = core.StatusError
		}
	}

	return &core.PatternResult{
		FinalText: lastActText,
		Status:    status,
		Trace:     rt.Trace(),
		Metadata:  map[string]any{"iterations": iterations, "terminal": terminal},
	}, nil
}

// observe assembles the iteration snapshot from context and trace-so-far and
// records it as its own step. No agent is invoked.
func (r *ReAct) observe(rt *Runtime, task string, ec core.ExecutionContext, iteration int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Iteration %d of %d.\nTask: %s\n", iteration, r.MaxIterations, task)
	if criteria, ok := ec[SuccessCriteriaKey].(string); ok && criteria != "" {
		b.WriteString("Success criteria: " + criteria + "\n")
	}
	if prior := ec.PreviousResults(); len(prior) > 0 {
		b.WriteString("Prior actions and outcomes:\n")
		for _, p := range prior {
			fmt.Fprintf(&b, "- %s: %s\n", p.AgentID, p.Text)
		}
	}

	now := time.Now().UTC()
	rt.Record(core.StepRecord{
		ID:         core.NewID(),
		RunID:      rt.RunID,
		AgentID:    r.ThinkID,
		Phase:      core.PhaseObserve,
		Output:     core.SystemMessage(b.String()),
		StartedAt:  now,
		FinishedAt: now,
		Status:     core.StepOK,
		Metadata:   map[string]any{"iteration": iteration},
	})

	return b.String()
}

func (r *ReAct) failed(rt *Runtime, iterations int, err error) *core.PatternResult {
	return &core.PatternResult{
		Status:   core.StatusError,
		Trace:    rt.Trace(),
		Metadata: map[string]any{"iterations": iterations, "terminal": "failed", "error": err.Error()},
	}
}

func thinkPrompt(task, observation string) string {
	return fmt.Sprintf("%s\nPropose the single next action to make progress on the task. Reply with the action only.", observation+"\nOverall task: "+task)
}

func actPrompt(task, action string) string {
	return fmt.Sprintf("Execute the following action for the task %q and report the outcome.\nAction: %s", task, action)
}

func reflectPrompt(task, outcome string, ec core.ExecutionContext) string {
	criteria, _ := ec[SuccessCriteriaKey].(string)
	if criteria != "" {
		return fmt.Sprintf("Task: %s\nSuccess criteria: %s\nLatest outcome: %s\nIs the goal achieved? Answer yes or no with a short rationale.", task, criteria, outcome)
	}
	return fmt.Sprintf("Task: %s\nLatest outcome: %s\nIs the goal achieved? Answer yes or no with a short rationale.", task, outcome)
}
