package core

import "context"

// Agent is the single boundary between the orchestration core and whatever
// actually produces text (an LLM call, a tool-execution layer, a canned stub
// in tests).
//
// Implementations must:
//   - Be safe to call concurrently across different Agent instances
//   - Not retain references to the passed-in history or context beyond the call
//   - Signal failures exclusively through the returned error, never through a
//     sentinel value inside the returned Message
//   - Respect cancellation of the supplied context
type Agent interface {
	Name() string
	Invoke(ctx context.Context, history []Message, ec ExecutionContext) (Message, error)
}
