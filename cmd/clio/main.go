package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/clio-ai/clio/agent"
	"github.com/clio-ai/clio/commands"
	"github.com/clio-ai/clio/config"
	"github.com/clio-ai/clio/llm"
	"github.com/clio-ai/clio/registry"
	"github.com/clio-ai/clio/tools"
)

func main() {
	modelFlag := flag.String("model", "", "Model id to start with (see /models)")
	dirFlag := flag.String("dir", ".", "Working directory for file actions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	reg := registry.Default()
	spec, err := pickModel(reg, *modelFlag, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	root, err := filepath.Abs(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid working directory %q: %v\n", *dirFlag, err)
		os.Exit(1)
	}

	mgr := agent.NewManager(agent.Config{
		Model:      spec,
		Factory:    newFactory(cfg),
		Executor:   tools.NewExecutor(root, cfg.Restricted),
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Second,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	})

	quit := false
	env := &commands.Env{
		Manager:  mgr,
		Registry: reg,
		Config:   cfg,
		Out:      os.Stdout,
		Quit:     func() { quit = true },
	}
	router := commands.NewRouter()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	historyPath := loadHistory(line)

	color.Cyan("clio - model: %s (%s), directory: %s", spec.ID, spec.Provider, root)
	fmt.Println("Type a prompt, /help for commands, /quit to exit.")

	// Positional arguments form an initial prompt, run before the loop.
	if initial := strings.Join(flag.Args(), " "); strings.TrimSpace(initial) != "" {
		runPrompt(mgr, initial)
	}

	for !quit {
		input, err := line.Prompt(">>> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Println()
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		handled, err := router.Dispatch(context.Background(), env, input)
		if handled {
			if err != nil {
				color.Red("%v", err)
			}
			continue
		}

		runPrompt(mgr, input)
	}

	saveHistory(line, historyPath)
}

// runPrompt processes one prompt. Ctrl+C during generation cancels the
// request; the partial response is kept in history but nothing is executed.
func runPrompt(mgr *agent.Manager, prompt string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := mgr.Submit(ctx, prompt, nil)

	// Actions from completed rounds are reported even when a later provider
	// call failed; the files were already touched.
	if out != nil {
		for _, r := range out.Results {
			if r.OK {
				color.Green("  %s", r.String())
			} else {
				color.Red("  %s", r.String())
			}
		}
		for _, s := range out.Skipped {
			color.Yellow("  skipped directive: %s", s.Reason)
		}
	}

	if err != nil {
		color.Red("error: %v", err)
		if llm.KindOf(err) == llm.KindConfigMissing {
			fmt.Println("Set the credential in the environment or in .clio/config.yaml, or pick another model with /model.")
		}
		return
	}

	if out.Interrupted {
		color.Yellow("(interrupted)")
		return
	}
	if out.Reply != "" {
		fmt.Println(out.Reply)
	}
}

// pickModel resolves the starting model: flag, then config, then the
// registry's first entry.
func pickModel(reg *registry.Registry, flagID, cfgID string) (registry.ModelSpec, error) {
	id := flagID
	if id == "" {
		id = cfgID
	}
	if id == "" {
		return reg.List()[0], nil
	}
	spec, err := reg.Lookup(id)
	if err != nil {
		return registry.ModelSpec{}, fmt.Errorf("unknown model %q; run with no -model and use /models to list ids", id)
	}
	return spec, nil
}

// newFactory builds provider clients from the resolved configuration.
func newFactory(cfg *config.Config) agent.Factory {
	return func(spec registry.ModelSpec) (llm.Client, error) {
		switch spec.Provider {
		case registry.ProviderGemini:
			return llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		case registry.ProviderGroq:
			return llm.NewGroqClient(cfg.GroqAPIKey, "")
		case registry.ProviderOllama:
			return llm.NewOllamaClient(cfg.OllamaURL)
		default:
			return nil, fmt.Errorf("no client for provider %q", spec.Provider)
		}
	}
}

func loadHistory(line *liner.State) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".clio", "history")
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return path
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
