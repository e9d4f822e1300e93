package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-ragchat-client/internal/bootstrap"
	"ai-ragchat-client/internal/config"

	"github.com/spf13/cobra"
)

var (
	apiURL  string
	logFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your PDF documents through a RAG backend",
	Long: `ragchat is a terminal client for a retrieval-augmented chatbot API.

Log in, upload PDFs, and ask questions about them. Each line you type is one
action; the session view is redrawn after every change.

Settings are read from the environment (and .env): API_URL, HTTP_TIMEOUT,
HTTP_GET_RETRIES, DELETE_METHOD, LOGOUT_PATH, LOG_FILE_PATH, OTEL_ENABLED.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runREPL,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides API_URL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (overrides LOG_FILE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug entries to the log file")
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if apiURL != "" {
		cfg.App.APIURL = apiURL
	}
	if logFile != "" {
		cfg.App.LogFilePath = logFile
	}
	if verbose {
		cfg.App.Debug = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = container.Close(shutdownCtx)
	}()

	repl, err := container.REPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ragchat connected to %s\n", container.API.BaseURL())
	container.Renderer.Refresh()
	return repl.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
