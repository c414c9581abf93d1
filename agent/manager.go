// Package agent orchestrates a conversation: it carries prompts to the
// active provider, parses directives out of the responses, applies them
// through the sandboxed executor, and feeds the outcomes back to the model
// until it settles on a final reply.
package agent

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/clio-ai/clio/actions"
	"github.com/clio-ai/clio/errors"
	"github.com/clio-ai/clio/llm"
	"github.com/clio-ai/clio/registry"
	"github.com/clio-ai/clio/session"
	"github.com/clio-ai/clio/tools"
)

// State is the manager's request lifecycle phase.
type State int

const (
	// StateIdle means no request is in flight; prompts are accepted.
	StateIdle State = iota
	// StateAwaiting means a provider call is in flight.
	StateAwaiting
	// StateApplying means parsed actions are being executed.
	StateApplying
)

// ErrBusy is returned when a prompt arrives while a request is in flight.
var ErrBusy = stderrors.New("a request is already being processed")

// maxToolRounds bounds the execute-and-ask-again loop so a model that keeps
// emitting directives cannot spin forever.
const maxToolRounds = 5

// Factory builds a provider client for a model. It is called lazily, on the
// first prompt after a model is selected, so an unconfigured provider only
// fails when actually used.
type Factory func(registry.ModelSpec) (llm.Client, error)

// Config assembles a Manager.
type Config struct {
	Model    registry.ModelSpec
	Factory  Factory
	Executor *tools.Executor

	// MaxRetries bounds retries of a failed provider call. Zero disables
	// retrying.
	MaxRetries int
	// BaseDelay is the first retry backoff, doubled per attempt. A
	// provider-suggested wait takes precedence.
	BaseDelay time.Duration
	// Timeout is the per-provider-call deadline. Zero means no deadline.
	Timeout time.Duration
}

// Outcome summarizes one completed prompt.
type Outcome struct {
	// Reply is the model's final prose answer, possibly empty when the
	// turn was pure file actions.
	Reply string
	// Results are the per-action execution outcomes, across all rounds,
	// in execution order.
	Results []tools.ExecutionResult
	// Skipped are directive fragments the parser could not accept.
	Skipped []actions.Skipped
	// Interrupted is set when the stream was cancelled mid-response; the
	// partial text is recorded but no actions were executed.
	Interrupted bool
}

// Manager serializes prompt processing over a single conversation. One
// request runs at a time; concurrent Submit calls beyond the first fail fast
// with ErrBusy rather than queueing.
type Manager struct {
	mu     sync.Mutex
	state  State
	conv   *session.Conversation
	active registry.ModelSpec
	client llm.Client

	factory Factory
	exec    *tools.Executor

	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration

	// sleep is replaceable in tests.
	sleep func(context.Context, time.Duration) error
}

// NewManager creates a manager starting on cfg.Model with an empty
// conversation.
func NewManager(cfg Config) *Manager {
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Manager{
		conv:       session.New(),
		active:     cfg.Model,
		factory:    cfg.Factory,
		exec:       cfg.Executor,
		maxRetries: cfg.MaxRetries,
		baseDelay:  baseDelay,
		timeout:    cfg.Timeout,
		sleep:      sleepCtx,
	}
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active returns the currently selected model.
func (m *Manager) Active() registry.ModelSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// History returns a copy of the conversation so far.
func (m *Manager) History() []session.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv.Turns()
}

// SwitchModel selects a different model for subsequent prompts. The
// conversation history is preserved across the switch. Switching while a
// request is in flight fails with ErrBusy.
func (m *Manager) SwitchModel(spec registry.ModelSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return ErrBusy
	}
	if spec.ID == m.active.ID {
		return nil
	}
	m.active = spec
	m.client = nil
	return nil
}

// Submit processes one user prompt to completion: provider call, directive
// parsing, sandboxed execution, and the feedback rounds that let the model
// react to tool results. onDelta, when non-nil, receives streamed response
// text as it arrives. Prompts that ask about the project (summarize,
// explain, ...) get a repository context block attached to the user turn.
//
// On provider failure the user turn stays in history and no model turn is
// recorded for the failed call. The returned Outcome accompanies the error
// and carries the per-action results of rounds that already executed, so
// partial progress is never collapsed into a bare failure.
func (m *Manager) Submit(ctx context.Context, prompt string, onDelta func(string)) (*Outcome, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.state = StateAwaiting
	if m.client == nil {
		client, err := m.factory(m.active)
		if err != nil {
			m.state = StateIdle
			m.mu.Unlock()
			return nil, err
		}
		m.client = client
	}
	client := m.client
	spec := m.active
	content := prompt
	if needsRepoContext(prompt) {
		content = renderPromptWithContext(prompt, gatherRepoContext(m.exec.Root()))
	}
	m.conv.Append(session.NewUserTurn(content))
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
	}()

	system := SystemPrompt(m.exec.Root())
	outcome := &Outcome{}
	prevResults := ""

	for round := 0; ; round++ {
		m.setState(StateAwaiting)
		req := llm.Request{Model: spec.ID, System: system, Turns: m.History()}

		text, interrupted, err := m.request(ctx, client, req, onDelta)
		if interrupted {
			turn := session.NewModelTurn(text, nil)
			turn.Interrupted = true
			m.appendTurn(turn)
			outcome.Interrupted = true
			outcome.Reply = text
			return outcome, nil
		}
		if err != nil {
			return outcome, err
		}

		result, err := actions.Parse(text)
		if err != nil {
			return outcome, errors.Wrapf(err, "model %s returned an unusable response", spec.ID)
		}
		outcome.Skipped = append(outcome.Skipped, result.Skipped...)
		m.appendTurn(session.NewModelTurn(text, result.Actions))

		if !result.HasActions() {
			outcome.Reply = result.Reply
			return outcome, nil
		}

		m.setState(StateApplying)
		results := m.exec.ExecuteAll(result.Actions)
		outcome.Results = append(outcome.Results, results...)

		rendered := renderToolResults(results)
		m.appendTurn(session.NewToolTurn(rendered, results))

		// A round whose outcomes are identical to the previous round's is
		// making no progress; asking again would only repeat it.
		if rendered == prevResults {
			outcome.Reply = result.Reply
			return outcome, nil
		}
		prevResults = rendered

		if round+1 >= maxToolRounds {
			outcome.Reply = result.Reply
			return outcome, nil
		}
	}
}

// request performs one provider call with retry on transient failures. A
// failure after partial streamed text is never retried, since the text has
// already been shown.
func (m *Manager) request(ctx context.Context, client llm.Client, req llm.Request, onDelta func(string)) (string, bool, error) {
	delay := m.baseDelay
	for attempt := 0; ; attempt++ {
		text, interrupted, err := m.once(ctx, client, req, onDelta)
		if err == nil || interrupted {
			return text, interrupted, nil
		}
		if text != "" || attempt >= m.maxRetries || !llm.Retryable(err) {
			return "", false, err
		}

		wait := delay
		if suggested, ok := llm.SuggestedDelay(err); ok {
			wait = suggested
		}
		if sleepErr := m.sleep(ctx, wait); sleepErr != nil {
			return "", false, err
		}
		delay *= 2
	}
}

// once performs a single provider call. The bool result reports a user
// cancellation mid-stream; the partial text accompanies it.
func (m *Manager) once(ctx context.Context, client llm.Client, req llm.Request, onDelta func(string)) (string, bool, error) {
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if onDelta == nil {
		resp, err := client.Complete(callCtx, req)
		if err != nil {
			if stderrors.Is(err, context.Canceled) {
				return "", true, nil
			}
			return "", false, err
		}
		return resp.Text, false, nil
	}

	ch, err := client.Stream(callCtx, req)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return "", true, nil
		}
		return "", false, err
	}

	var text string
	for chunk := range ch {
		if chunk.Err != nil {
			if stderrors.Is(chunk.Err, context.Canceled) {
				return text, true, nil
			}
			return text, false, chunk.Err
		}
		if chunk.Text != "" {
			text += chunk.Text
			onDelta(chunk.Text)
		}
		if chunk.Done {
			break
		}
	}
	return text, false, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) appendTurn(t session.Turn) {
	m.mu.Lock()
	m.conv.Append(t)
	m.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
