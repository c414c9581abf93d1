package actions

import "strings"

// jsonCandidates scans prose for balanced JSON objects and arrays and
// returns them in order of appearance. String literals are tracked so braces
// inside quoted content don't break the balance.
func jsonCandidates(text string) []string {
	var candidates []string
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		open := runes[i]
		if open != '{' && open != '[' {
			continue
		}

		stack := []rune{open}
		inString := false
		escaped := false

		for j := i + 1; j < len(runes); j++ {
			c := runes[j]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}

			switch c {
			case '"':
				inString = true
			case '{', '[':
				stack = append(stack, c)
			case '}', ']':
				top := stack[len(stack)-1]
				if (top == '{' && c != '}') || (top == '[' && c != ']') {
					// Mismatched close; abandon this candidate.
					stack = nil
				} else {
					stack = stack[:len(stack)-1]
					if len(stack) == 0 {
						candidates = append(candidates, string(runes[i:j+1]))
						i = j
					}
				}
			}
			if len(stack) == 0 {
				break
			}
		}
	}

	return candidates
}

// parseMarkdownFiles recovers create_file directives from the markdown
// convention of a "**filename**" (or `filename`) line followed by a fenced
// code block. Some models answer this way despite the JSON instructions.
func parseMarkdownFiles(text string) []Action {
	var out []Action
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		name := headingFilename(lines[i])
		if name == "" {
			continue
		}
		if i+1 >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[i+1]), "```") {
			continue
		}

		var content []string
		j := i + 2
		for ; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				break
			}
			content = append(content, lines[j])
		}
		if j >= len(lines) {
			// Unterminated fence; don't guess at the file body.
			continue
		}

		out = append(out, Action{
			Kind:    KindCreateFile,
			Path:    name,
			Content: strings.TrimRight(strings.Join(content, "\n"), "\n"),
		})
		i = j
	}

	return out
}

// headingFilename extracts a file name from a heading-style line such as
// "**main.py**", "`main.py`", or "main.py:". Returns "" when the line does
// not look like a file reference.
func headingFilename(line string) string {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "**"), "**"))
		if looksLikePath(name) {
			return name
		}
	}

	if strings.HasPrefix(line, "`") && strings.HasSuffix(line, "`") && !strings.Contains(line, "```") {
		name := strings.TrimSpace(strings.Trim(line, "`"))
		if looksLikePath(name) {
			return name
		}
	}

	for _, sep := range []string{" (", " -", ":"} {
		if pos := strings.Index(line, sep); pos > 0 {
			name := strings.TrimSpace(strings.Trim(line[:pos], "*"))
			if looksLikePath(name) && !strings.Contains(name, " ") {
				return name
			}
		}
	}

	return ""
}

func looksLikePath(name string) bool {
	return name != "" && strings.Contains(name, ".") && !strings.ContainsAny(name, "{}\"")
}
