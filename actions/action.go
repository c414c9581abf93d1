// Package actions converts raw model output into a typed, ordered sequence
// of file actions. Parsing is strictly separated from execution: nothing in
// this package touches the filesystem.
package actions

// Kind identifies one of the supported file operations. The wire names match
// the vocabulary the system prompt teaches the model.
type Kind string

const (
	KindCreateFile Kind = "create_file"
	KindCreateDir  Kind = "create_folder"
	KindReadFile   Kind = "read_file"
	KindEditFile   Kind = "edit_file"
	KindDelete     Kind = "delete"
	KindListDir    Kind = "list_dir"
)

// knownKinds is the closed set of actions the executor understands. Anything
// else from the model (cd, run, shell, ...) is skipped, never executed.
var knownKinds = map[Kind]bool{
	KindCreateFile: true,
	KindCreateDir:  true,
	KindReadFile:   true,
	KindEditFile:   true,
	KindDelete:     true,
	KindListDir:    true,
}

// Action is a single structured file-system intent extracted from model
// output. Path is always interpreted relative to the sandbox root by the
// executor, regardless of how the model wrote it.
type Action struct {
	Kind    Kind   `json:"action"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`

	// Overwrite lets a create_file replace an existing file. The model must
	// ask for it explicitly; the default refuses to clobber.
	Overwrite bool `json:"overwrite,omitempty"`

	// Find/Replace describe a patch for edit_file. When Find is empty the
	// edit replaces the whole file with Content.
	Find    string `json:"find,omitempty"`
	Replace string `json:"replace,omitempty"`
}

// Skipped records a directive that looked like an action but could not be
// used. Skips are annotations on a turn, not failures.
type Skipped struct {
	Raw    string
	Reason string
}

// Result is the outcome of parsing one model response.
type Result struct {
	// Actions in the exact order they appeared in the text.
	Actions []Action
	// Skipped directives, for reporting back to the user and the model.
	Skipped []Skipped
	// Reply is the conversational text of the response. For a pure-prose
	// response it is the whole text; for a directive response it is
	// whatever "response" field the model included, if any.
	Reply string
}

// HasActions reports whether any well-formed directive was extracted.
func (r *Result) HasActions() bool {
	return len(r.Actions) > 0
}
