package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// contextCues are prompt fragments that ask about the project rather than
// for a change to it. Such prompts get a repository overview attached so the
// model can answer without a round of read_file/list_dir directives.
var contextCues = []string{
	"summarize",
	"explain",
	"understand",
	"what is this",
	"what does",
	"describe",
	"about this",
}

// manifestFiles are read (truncated) into the repository context when
// present at the sandbox root.
var manifestFiles = []string{"README.md", "Cargo.toml", "package.json", "pyproject.toml", "go.mod"}

// manifestExcerptLimit bounds how much of each manifest file is attached.
const manifestExcerptLimit = 1500

func needsRepoContext(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, cue := range contextCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// gatherRepoContext renders a top-level file listing plus excerpts of the
// common manifest files under root. Unreadable entries are silently skipped;
// a partial overview is still useful context.
func gatherRepoContext(root string) string {
	var b strings.Builder
	b.WriteString("FILES:\n")
	if entries, err := os.ReadDir(root); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				name += "/"
			}
			b.WriteString(name)
			b.WriteString("\n")
		}
	}

	for _, file := range manifestFiles {
		data, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			continue
		}
		content := string(data)
		if runes := []rune(content); len(runes) > manifestExcerptLimit {
			content = string(runes[:manifestExcerptLimit])
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", file, content)
	}

	return b.String()
}

// renderPromptWithContext prefixes a prompt with the gathered repository
// overview.
func renderPromptWithContext(prompt, repoContext string) string {
	return fmt.Sprintf("REPO CONTEXT:\n%s\n\nUSER REQUEST: %s", repoContext, prompt)
}
