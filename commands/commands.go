// Package commands routes the REPL's slash commands. Anything that does not
// start with a slash is a prompt for the model and is not handled here.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/clio-ai/clio/agent"
	"github.com/clio-ai/clio/config"
	"github.com/clio-ai/clio/errors"
	"github.com/clio-ai/clio/registry"
)

// Env is what commands get to act on.
type Env struct {
	Manager  *agent.Manager
	Registry *registry.Registry
	Config   *config.Config
	Out      io.Writer

	// Quit asks the REPL loop to exit.
	Quit func()
}

// Command is one slash command.
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env, args []string) error
}

// Router dispatches slash commands by name.
type Router struct {
	commands map[string]*Command
	order    []string
}

// NewRouter returns a router with the builtin commands registered.
func NewRouter() *Router {
	r := &Router{commands: make(map[string]*Command)}
	r.Register(&Command{Name: "help", Description: "List available commands", Run: r.runHelp})
	r.Register(&Command{Name: "models", Description: "List available models", Run: runModels})
	r.Register(&Command{Name: "model", Description: "Show or switch the active model: /model [id]", Run: runModel})
	r.Register(&Command{Name: "config", Description: "Show where configuration was loaded from", Run: runConfig})
	r.Register(&Command{Name: "quit", Description: "Exit the session", Run: runQuit})
	return r
}

// Register adds a command, replacing any previous one with the same name.
func (r *Router) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Dispatch runs the slash command in line, if it is one. The bool reports
// whether the line was a slash command at all; non-command lines are the
// caller's to treat as prompts.
func (r *Router) Dispatch(ctx context.Context, env *Env, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return false, nil
	}

	fields := strings.Fields(strings.TrimPrefix(trimmed, "/"))
	if len(fields) == 0 {
		return true, errors.New("empty command; try /help")
	}

	cmd, found := r.commands[fields[0]]
	if !found {
		return true, errors.New("unknown command /%s; try /help", fields[0])
	}
	return true, cmd.Run(ctx, env, fields[1:])
}

func (r *Router) helpLines() []string {
	lines := make([]string, 0, len(r.order))
	for _, name := range r.order {
		lines = append(lines, fmt.Sprintf("  /%-8s %s", name, r.commands[name].Description))
	}
	return lines
}

func (r *Router) runHelp(_ context.Context, env *Env, _ []string) error {
	fmt.Fprintln(env.Out, "Commands:")
	for _, line := range r.helpLines() {
		fmt.Fprintln(env.Out, line)
	}
	fmt.Fprintln(env.Out, "\nAnything else is sent to the model as a prompt.")
	return nil
}

func runModels(_ context.Context, env *Env, _ []string) error {
	active := env.Manager.Active()
	for _, spec := range env.Registry.List() {
		marker := " "
		if spec.ID == active.ID {
			marker = color.GreenString("*")
		}
		fmt.Fprintf(env.Out, "%s %-45s %-10s %s\n", marker, spec.ID, spec.Provider, spec.Name)
	}
	return nil
}

func runModel(_ context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		active := env.Manager.Active()
		fmt.Fprintf(env.Out, "active model: %s (%s)\n", active.ID, active.Provider)
		return nil
	}

	spec, err := env.Registry.Lookup(args[0])
	if err != nil {
		return errors.Wrapf(err, "cannot switch model")
	}
	if err := env.Manager.SwitchModel(spec); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "switched to %s (%s)\n", spec.ID, spec.Provider)
	return nil
}

func runConfig(_ context.Context, env *Env, _ []string) error {
	fmt.Fprintln(env.Out, env.Config.SourceDescription())
	return nil
}

func runQuit(_ context.Context, env *Env, _ []string) error {
	if env.Quit != nil {
		env.Quit()
	}
	return nil
}
