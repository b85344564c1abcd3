package core

// Role identifies the author category of a Message.
type Role string

const (
	// RoleSystem marks instruction messages injected by the caller or a pattern.
	RoleSystem Role = "system"
	// RoleUser marks task input authored by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks output produced by an agent.
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged unit of conversation. Messages are value
// types and must be treated as immutable once created; patterns build new
// histories instead of editing prior entries.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// SystemMessage builds a system-role message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// UserMessage builds a user-role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// AgentResult pairs an agent id with the text it produced. Sequential and
// Hierarchical patterns accumulate these under the PreviousResultsKey context
// key so downstream agents can see upstream contributions in order.
type AgentResult struct {
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
}
