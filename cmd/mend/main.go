package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mend/internal/config"
	"mend/internal/logging"
	"mend/internal/provider"
	"mend/internal/settings"
	"mend/internal/task"
	"mend/internal/workspace"
)

var (
	version  = "0.1.0"
	cfgFile  string
	model    string
	baseURL  string
	workDir  string
	autoYes  bool
	asJSON   bool
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mend [prompt]",
		Short: "Agentic code editing from the terminal",
		Long: `Mend runs a coding agent against a local or remote model. It reads,
searches, and edits files in the workspace through an approval gate,
applying model-proposed diffs with fuzzy search/replace matching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTask,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mend/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "model server URL")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "workspace root (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&autoYes, "yes", "y", false, "approve all actions without asking")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the full transcript as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mend version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runTask(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadPath(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if model != "" {
		cfg.Provider.Model = model
	}
	if baseURL != "" {
		cfg.Provider.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if autoYes {
		cfg.Approval.Enabled = false
	}

	logging.Configure(logging.ParseLevel(cfg.Logging.Level), os.Stderr)
	if cfg.Logging.Dir != "" {
		if err := logging.EnableFileLogging(cfg.Logging.Dir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}

	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	if b := cfg.Provider.Backend; b != "" && b != "ollama" {
		return fmt.Errorf("unsupported provider backend %q", b)
	}
	client, err := provider.NewOllamaClient(provider.OllamaConfig{
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		APIKey:  cfg.Provider.APIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	sp := settings.NewFile(config.SettingsPath())
	manager := task.NewManager(cfg, sp, client, newTerminalResponder(os.Stdin, os.Stderr), workDir)

	tracker, err := workspace.NewTracker()
	if err != nil {
		logging.Warn("file watching unavailable", "err", err)
	} else {
		manager.SetTracker(tracker)
		defer tracker.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := manager.Create()
	if err != nil {
		return err
	}
	go drainEvents(t)

	prompt := strings.Join(args, " ")
	runErr := t.Run(ctx, prompt)

	if runErr != nil && !autoYes {
		offerRevert(t)
	}

	if asJSON {
		out, err := t.TranscriptJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else if runErr == nil {
		printTranscript(t)
	}
	return runErr
}

// offerRevert lets the user roll back a failed task's file mutations.
func offerRevert(t *task.Task) {
	journal := t.Journal()
	if journal.Len() == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "\nThe task left %d file change(s):\n", journal.Len())
	for _, change := range journal.List() {
		fmt.Fprintf(os.Stderr, "  %s\n", change.Summary())
	}
	fmt.Fprint(os.Stderr, "Revert them? [y/N]: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y") {
		return
	}

	reverted, err := journal.RevertAll()
	for _, change := range reverted {
		fmt.Fprintf(os.Stderr, "reverted: %s\n", change.FilePath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "revert stopped: %v\n", err)
	}
}

// drainEvents logs task events as they arrive.
func drainEvents(t *task.Task) {
	for ev := range t.Events() {
		logging.Info("task event", "task", ev.TaskID, "event", ev.Name, "data", fmt.Sprint(ev.Data))
	}
}

// printTranscript writes the assistant's final answer, preceded by the
// tool activity that produced it.
func printTranscript(t *task.Task) {
	history := t.History()
	for _, turn := range history {
		switch turn.Role {
		case "tool":
			fmt.Println("--- tool ---")
			fmt.Println(turn.Content)
		case "assistant":
			fmt.Println(turn.Content)
		}
	}
}
