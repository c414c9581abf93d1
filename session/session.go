// Package session holds the in-memory conversation state: an append-only
// sequence of turns. Conversations live for the process lifetime only; there
// is deliberately no persistence.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/clio-ai/clio/actions"
	"github.com/clio-ai/clio/tools"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Turn is one logical step in a conversation. A user turn carries only
// content; a model turn additionally carries the actions parsed from it; a
// tool turn carries the outcomes of executing those actions. Turns are never
// edited after creation.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	Actions   []actions.Action
	Results   []tools.ExecutionResult
	CreatedAt time.Time

	// Interrupted marks a model turn whose stream was cancelled before the
	// provider finished; its content is the partial text received.
	Interrupted bool
}

// NewUserTurn creates a turn for a user prompt.
func NewUserTurn(content string) Turn {
	return newTurn(RoleUser, content)
}

// NewModelTurn creates a turn for a model response and its parsed actions.
func NewModelTurn(content string, as []actions.Action) Turn {
	t := newTurn(RoleModel, content)
	t.Actions = as
	return t
}

// NewToolTurn creates a turn recording per-action execution outcomes. The
// content is the rendered summary that becomes context for the next request.
func NewToolTurn(content string, results []tools.ExecutionResult) Turn {
	t := newTurn(RoleTool, content)
	t.Results = results
	return t
}

func newTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Conversation owns an ordered sequence of turns. It is append-only: callers
// observe history through copies and can never rewrite a recorded turn.
type Conversation struct {
	turns []Turn
}

// New creates an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

// Append records a turn at the end of the history.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the history in order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of recorded turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Last returns the most recent turn, or false when the conversation is empty.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}
