package pattern

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentweave/core"
)

// Hierarchical has one manager agent partition the task into subtasks,
// assigns each subtask to a worker by capability matching (exact tag match
// first, else first available worker in declared order), executes the
// workers sequentially or in parallel, and finally asks the manager to
// integrate the worker outputs into one result.
//
// Failed subtasks are not silently omitted: the manager's integration prompt
// carries an explicit "subtask failed" marker so the synthesis step can
// compensate. This is the only pattern surfacing failures into the
// LLM-driven synthesis rather than only into the trace.
type Hierarchical struct {
	ManagerID         string
	WorkerIDs         []string
	ParallelExecution bool
}

// NewHierarchical creates a sequential-execution hierarchy.
func NewHierarchical(managerID string, workerIDs ...string) *Hierarchical {
	return &Hierarchical{ManagerID: managerID, WorkerIDs: workerIDs}
}

// Kind implements Pattern.
func (h *Hierarchical) Kind() string { return "hierarchical" }

// AgentIDs implements Pattern.
func (h *Hierarchical) AgentIDs() []string {
	return append([]string{h.ManagerID}, h.WorkerIDs...)
}

// Validate implements Pattern.
func (h *Hierarchical) Validate() error {
	if h.ManagerID == "" {
		return &core.InvalidPatternConfigError{Pattern: h.Kind(), Reason: "manager agent required"}
	}
	if len(h.WorkerIDs) == 0 {
		return &core.InvalidPatternConfigError{Pattern: h.Kind(), Reason: "at least one worker required"}
	}
	return nil
}

// assignment pairs one subtask with its selected worker.
type assignment struct {
	subtask string
	worker  string
}

// Run implements Pattern.
func (h *Hierarchical) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	if rt.Cancelled(ctx) {
		return rt.cancelledResult(nil), nil
	}

	runCtx := ec.Clone()

	plan, err := rt.InvokeRecorded(ctx, h.ManagerID,
		[]core.Message{core.UserMessage(partitionPrompt(task, h.WorkerIDs, rt.Capabilities))}, runCtx)
	if err != nil {
		return &core.PatternResult{
			Status:   core.StatusError,
			Trace:    rt.Trace(),
			Metadata: map[string]any{"stage": "partition", "error": err.Error()},
		}, nil
	}

	assignments := h.assign(parseSubtasks(plan.Text, task), rt.Capabilities)

	outcomes := make([]core.AgentResult, len(assignments))
	records := make([]core.StepRecord, len(assignments))
	failures := 0

	if h.ParallelExecution {
		var wg sync.WaitGroup
		for i, a := range assignments {
			wg.Add(1)
			go func(i int, a assignment) {
				defer wg.Done()
				msg, rec, err := rt.Invoke(ctx, a.worker, []core.Message{core.UserMessage(a.subtask)}, runCtx)
				records[i] = rec
				outcomes[i] = workerOutcome(a, msg, err)
			}(i, a)
		}
		wg.Wait()

		if rt.Cancelled(ctx) {
			return rt.cancelledResult(map[string]any{"subtasks": len(assignments)}), nil
		}
		// Assignment order, not completion order.
		for _, rec := range records {
			rt.Record(rec)
		}
	} else {
		for i, a := range assignments {
			if rt.Cancelled(ctx) {
				return rt.cancelledResult(map[string]any{"subtasks": len(assignments)}), nil
			}
			msg, rec, err := rt.Invoke(ctx, a.worker, []core.Message{core.UserMessage(a.subtask)}, runCtx)
			rt.Record(rec)
			outcomes[i] = workerOutcome(a, msg, err)
		}
	}

	integrationCtx := runCtx
	for _, o := range outcomes {
		if strings.HasPrefix(o.Text, failedMarker) {
			failures++
		}
		integrationCtx = integrationCtx.WithPreviousResult(o)
	}

	if rt.Cancelled(ctx) {
		return rt.cancelledResult(map[string]any{"subtasks": len(assignments)}), nil
	}

	final, err := rt.InvokeRecorded(ctx, h.ManagerID,
		[]core.Message{core.UserMessage(integratePrompt(task, assignments, outcomes))}, integrationCtx)
	if err != nil {
		return &core.PatternResult{
			Status:   core.StatusError,
			Trace:    rt.Trace(),
			Metadata: map[string]any{"stage": "integrate", "error": err.Error()},
		}, nil
	}

	status := core.StatusOK
	if failures > 0 {
		status = core.StatusPartial
	}

	return &core.PatternResult{
		FinalText: final.Text,
		Status:    status,
		Trace:     rt.Trace(),
		Metadata: map[string]any{
			"subtasks":        len(assignments),
			"failed_subtasks": failures,
			"parallel":        h.ParallelExecution,
		},
	}, nil
}

const failedMarker = "subtask failed"

func workerOutcome(a assignment, msg core.Message, err error) core.AgentResult {
	if err != nil {
		return core.AgentResult{AgentID: a.worker, Text: fmt.Sprintf("%s: %v", failedMarker, err)}
	}
	return core.AgentResult{AgentID: a.worker, Text: msg.Text}
}

// assign matches each subtask to a worker: a worker whose capability tag
// appears in the subtask text wins (first declared such worker), otherwise
// workers are used round-robin in declared order.
func (h *Hierarchical) assign(subtasks []string, caps map[string][]string) []assignment {
	assignments := make([]assignment, 0, len(subtasks))
	next := 0

	for _, st := range subtasks {
		worker := ""
		lower := strings.ToLower(st)
		for _, w := range h.WorkerIDs {
			for _, tag := range caps[w] {
				if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
					worker = w
					break
				}
			}
			if worker != "" {
				break
			}
		}
		if worker == "" {
			worker = h.WorkerIDs[next%len(h.WorkerIDs)]
			next++
		}
		assignments = append(assignments, assignment{subtask: st, worker: worker})
	}

	return assignments
}

// parseSubtasks splits the manager's partition output into one subtask per
// non-empty line, stripping bullets and numbering. An empty partition falls
// back to the whole task as a single subtask.
func parseSubtasks(text, task string) []string {
	var subtasks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) \t")
		if line != "" {
			subtasks = append(subtasks, line)
		}
	}
	if len(subtasks) == 0 {
		subtasks = []string{task}
	}
	return subtasks
}

func partitionPrompt(task string, workers []string, caps map[string][]string) string {
	var b strings.Builder
	b.WriteString("Partition the following task into independent subtasks, one per line.\n")
	b.WriteString("Task: " + task + "\n")
	b.WriteString("Available workers:\n")
	for _, w := range workers {
		if tags := caps[w]; len(tags) > 0 {
			fmt.Fprintf(&b, "- %s (capabilities: %s)\n", w, strings.Join(tags, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func integratePrompt(task string, assignments []assignment, outcomes []core.AgentResult) string {
	var b strings.Builder
	b.WriteString("Integrate the subtask results below into one final answer for the task.\n")
	b.WriteString("Task: " + task + "\n")
	for i, a := range assignments {
		fmt.Fprintf(&b, "Subtask %d (%s, worker %s): %s\n", i+1, a.subtask, a.worker, outcomes[i].Text)
	}
	b.WriteString("Failed subtasks are marked explicitly; compensate for them in the final answer.")
	return b.String()
}
