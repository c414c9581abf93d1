package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-ai/clio/llm"
)

func TestNeedsRepoContext(t *testing.T) {
	wants := []string{
		"summarize this project",
		"Explain the code",
		"what does main.py do",
		"WHAT IS THIS repo",
		"describe the layout",
		"tell me about this codebase",
	}
	for _, p := range wants {
		assert.True(t, needsRepoContext(p), p)
	}

	skips := []string{
		"create hello.py",
		"delete old.txt",
		"hi",
		"add a readme",
	}
	for _, p := range skips {
		assert.False(t, needsRepoContext(p), p)
	}
}

func TestGatherRepoContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# My Project\ndoes things"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print(1)"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o755))

	ctx := gatherRepoContext(root)
	assert.Contains(t, ctx, "FILES:")
	assert.Contains(t, ctx, "main.py")
	assert.Contains(t, ctx, "src/")
	assert.Contains(t, ctx, "--- README.md ---")
	assert.Contains(t, ctx, "# My Project")
	assert.NotContains(t, ctx, "--- package.json ---", "absent manifests are not listed")
}

func TestGatherRepoContextTruncatesManifests(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("x", 4000)
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte(long), 0o644))

	ctx := gatherRepoContext(root)
	assert.Contains(t, ctx, strings.Repeat("x", manifestExcerptLimit))
	assert.NotContains(t, ctx, strings.Repeat("x", manifestExcerptLimit+1))
}

func TestSubmitAttachesRepoContext(t *testing.T) {
	mock := &llm.MockClient{Script: []llm.MockReply{
		{Text: `{"response": "It is a small Python project."}`},
	}}
	m, root := newTestManager(t, mock, Config{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# Demo"), 0o644))

	_, err := m.Submit(context.Background(), "explain this project", nil)
	require.NoError(t, err)

	require.Len(t, mock.Requests, 1)
	sent := mock.Requests[0].Turns[0].Content
	assert.True(t, strings.HasPrefix(sent, "REPO CONTEXT:\n"))
	assert.Contains(t, sent, "# Demo")
	assert.Contains(t, sent, "USER REQUEST: explain this project")
}

func TestSubmitPlainPromptHasNoContext(t *testing.T) {
	mock := &llm.MockClient{Script: []llm.MockReply{
		{Text: `{"response": "done"}`},
	}}
	m, _ := newTestManager(t, mock, Config{})

	_, err := m.Submit(context.Background(), "create hello.txt", nil)
	require.NoError(t, err)

	require.Len(t, mock.Requests, 1)
	assert.Equal(t, "create hello.txt", mock.Requests[0].Turns[0].Content)
}
