package main

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"jsastad/internal/config"
	"jsastad/internal/lsp"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	flagConfig   string
	flagLogFile  string
	flagDebounce int
)

var rootCmd = &cobra.Command{
	Use:   "jsastad",
	Short: "Language server for JSasta",
	Long: "jsastad speaks the Language Server Protocol over stdio. It keeps open\n" +
		"documents analyzed in the background and serves diagnostics and\n" +
		"go-to-definition from the latest committed analysis snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = flagLogFile
		}
		if cmd.Flags().Changed("debounce") {
			cfg.DebounceMillis = flagDebounce
		}
		return run(cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "log file path (in addition to stderr)")
	rootCmd.Flags().IntVar(&flagDebounce, "debounce", 0, "analysis debounce window in milliseconds")
}

func run(cfg config.Config) error {
	commonlog.Configure(cfg.Verbosity, nil)

	// Stdout carries the protocol, so the log goes to stderr plus a file.
	writers := []io.Writer{os.Stderr}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return err
		}
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		defer logFile.Close()
		writers = append(writers, logFile)
	}
	log.SetOutput(io.MultiWriter(writers...))
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	log.Println("Starting JSasta LSP server...")

	server, err := lsp.NewServer(cfg)
	if err != nil {
		return err
	}

	return server.RunStdio()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
