// Package tools applies parsed actions to the filesystem under a sandbox
// root. Every action is validated against the sandbox boundary before any
// I/O; failures are confined to the action that caused them.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clio-ai/clio/actions"
)

// FailureKind classifies why an action could not be applied.
type FailureKind string

const (
	FailPathEscape    FailureKind = "path_escape"
	FailRestricted    FailureKind = "restricted"
	FailAlreadyExists FailureKind = "already_exists"
	FailNotFound      FailureKind = "not_found"
	FailPatchMismatch FailureKind = "patch_mismatch"
	FailIO            FailureKind = "io_error"
)

// ExecutionResult is the immutable per-action outcome.
type ExecutionResult struct {
	Action  actions.Action
	OK      bool
	Summary string
	Failure FailureKind
	Message string
}

// String renders the result in the one-line form shown to the user.
func (r ExecutionResult) String() string {
	if r.OK {
		return fmt.Sprintf("%s %s: %s", r.Action.Kind, r.Action.Path, firstLine(r.Summary))
	}
	return fmt.Sprintf("%s %s: failed (%s): %s", r.Action.Kind, r.Action.Path, r.Failure, r.Message)
}

// Executor applies actions inside a sandbox root.
type Executor struct {
	root       string
	restricted []string
}

// NewExecutor returns an executor confined to root. The restricted patterns
// are doublestar globs (relative to root) that no action may touch.
func NewExecutor(root string, restricted []string) *Executor {
	return &Executor{root: root, restricted: restricted}
}

// Root returns the sandbox root directory.
func (e *Executor) Root() string {
	return e.root
}

// ExecuteAll applies the actions sequentially, in order. A failure is
// recorded and execution continues with the next action; later actions in
// the same turn may legitimately depend on earlier ones, so order is never
// rearranged.
func (e *Executor) ExecuteAll(as []actions.Action) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(as))
	for _, a := range as {
		results = append(results, e.Execute(a))
	}
	return results
}

// Execute applies a single action and returns its outcome. Side effects are
// confined to the path the action names, plus any parent directories an
// implicit mkdir creates for a nested create_file.
func (e *Executor) Execute(a actions.Action) ExecutionResult {
	abs, rel, err := resolve(e.root, a.Path)
	if err != nil {
		return fail(a, FailPathEscape, err.Error())
	}

	restricted, err := isRestricted(rel, e.restricted)
	if err != nil {
		return fail(a, FailIO, err.Error())
	}
	if restricted {
		return fail(a, FailRestricted, fmt.Sprintf("path %q is restricted by configuration", rel))
	}

	switch a.Kind {
	case actions.KindCreateFile:
		return e.createFile(a, abs, rel)
	case actions.KindCreateDir:
		return e.createDir(a, abs, rel)
	case actions.KindReadFile:
		return e.readFile(a, abs, rel)
	case actions.KindEditFile:
		return e.editFile(a, abs, rel)
	case actions.KindDelete:
		return e.delete(a, abs, rel)
	case actions.KindListDir:
		return e.listDir(a, abs, rel)
	default:
		// The parser only emits known kinds; this guards direct callers.
		return fail(a, FailIO, fmt.Sprintf("unsupported action %q", a.Kind))
	}
}

func (e *Executor) createFile(a actions.Action, abs, rel string) ExecutionResult {
	if _, err := os.Stat(abs); err == nil && !a.Overwrite {
		return fail(a, FailAlreadyExists, fmt.Sprintf("%s already exists; the model must set overwrite to replace it", rel))
	}

	madeParent := ""
	parent := filepath.Dir(abs)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fail(a, FailIO, err.Error())
		}
		madeParent = fmt.Sprintf(" (created directory %s)", filepath.ToSlash(filepath.Dir(rel)))
	}

	if err := os.WriteFile(abs, []byte(a.Content), 0o644); err != nil {
		return fail(a, FailIO, err.Error())
	}
	return ok(a, fmt.Sprintf("wrote %d bytes%s", len(a.Content), madeParent))
}

func (e *Executor) createDir(a actions.Action, abs, rel string) ExecutionResult {
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fail(a, FailIO, err.Error())
	}
	return ok(a, "directory created")
}

func (e *Executor) readFile(a actions.Action, abs, rel string) ExecutionResult {
	content, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return fail(a, FailNotFound, fmt.Sprintf("%s does not exist", rel))
	}
	if err != nil {
		return fail(a, FailIO, err.Error())
	}
	return ok(a, string(content))
}

func (e *Executor) editFile(a actions.Action, abs, rel string) ExecutionResult {
	current, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return fail(a, FailNotFound, fmt.Sprintf("%s does not exist; use create_file for new files", rel))
	}
	if err != nil {
		return fail(a, FailIO, err.Error())
	}

	var next string
	if a.Find != "" {
		// Patch mode: the find text must match the file as it is now.
		// Guessing at a fuzzy location could corrupt the file, so a miss is
		// a hard failure.
		if !strings.Contains(string(current), a.Find) {
			return fail(a, FailPatchMismatch, fmt.Sprintf("find text not present in %s", rel))
		}
		next = strings.Replace(string(current), a.Find, a.Replace, 1)
	} else {
		next = a.Content
	}

	if err := os.WriteFile(abs, []byte(next), 0o644); err != nil {
		return fail(a, FailIO, err.Error())
	}
	if a.Find != "" {
		return ok(a, "patch applied")
	}
	return ok(a, fmt.Sprintf("replaced content (%d bytes)", len(next)))
}

func (e *Executor) delete(a actions.Action, abs, rel string) ExecutionResult {
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return fail(a, FailNotFound, fmt.Sprintf("%s does not exist", rel))
	}
	if err != nil {
		return fail(a, FailIO, err.Error())
	}

	if info.IsDir() {
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	if err != nil {
		return fail(a, FailIO, err.Error())
	}
	return ok(a, "deleted")
}

func (e *Executor) listDir(a actions.Action, abs, rel string) ExecutionResult {
	entries, err := os.ReadDir(abs)
	if os.IsNotExist(err) {
		return fail(a, FailNotFound, fmt.Sprintf("%s does not exist", rel))
	}
	if err != nil {
		return fail(a, FailIO, err.Error())
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return ok(a, strings.Join(names, "\n"))
}

func ok(a actions.Action, summary string) ExecutionResult {
	return ExecutionResult{Action: a, OK: true, Summary: summary}
}

func fail(a actions.Action, kind FailureKind, msg string) ExecutionResult {
	return ExecutionResult{Action: a, Failure: kind, Message: msg}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
