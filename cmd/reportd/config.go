package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/reportd/reportd/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("Configuration OK (bind %s, database %s, output %s)\n",
				cfg.Server.Bind, cfg.Database.Path, cfg.Output.Dir)
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively generate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "reportd.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			bind := "127.0.0.1:8080"
			dbPath := "reportd.db"
			outputDir := "outputs"
			logLevel := "info"
			runTimeout := "0s"
			token := ""

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Listen address").
						Description("host:port for the HTTP API").
						Value(&bind),
					huh.NewInput().
						Title("Database path").
						Description("SQLite file holding report definitions and run history").
						Value(&dbPath),
					huh.NewInput().
						Title("Output directory").
						Description("Where CSV artifacts are written").
						Value(&outputDir),
				),
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Log level").
						Options(
							huh.NewOption("debug", "debug"),
							huh.NewOption("info", "info"),
							huh.NewOption("warn", "warn"),
							huh.NewOption("error", "error"),
						).
						Value(&logLevel),
					huh.NewInput().
						Title("Run timeout").
						Description("Per-run query timeout, e.g. 5m (0s disables)").
						Value(&runTimeout).
						Validate(func(s string) error {
							d, err := time.ParseDuration(s)
							if err != nil {
								return errors.New("enter a Go duration, e.g. 30s or 5m")
							}
							if d < 0 {
								return errors.New("timeout must not be negative")
							}
							return nil
						}),
					huh.NewInput().
						Title("API bearer token").
						Description("Leave empty to run without authentication").
						EchoMode(huh.EchoModePassword).
						Value(&token),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			content := renderConfig(bind, dbPath, outputDir, logLevel, runTimeout, token)
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func renderConfig(bind, dbPath, outputDir, logLevel, runTimeout, token string) string {
	var b strings.Builder
	b.WriteString("server:\n")
	fmt.Fprintf(&b, "  bind: %q\n", bind)
	if token != "" {
		b.WriteString("  auth:\n")
		fmt.Fprintf(&b, "    bearer_token: %q\n", token)
	}
	b.WriteString("database:\n")
	fmt.Fprintf(&b, "  path: %q\n", dbPath)
	b.WriteString("output:\n")
	fmt.Fprintf(&b, "  dir: %q\n", outputDir)
	b.WriteString("scheduler:\n")
	fmt.Fprintf(&b, "  run_timeout: %s\n", runTimeout)
	b.WriteString("log:\n")
	fmt.Fprintf(&b, "  level: %s\n", logLevel)
	return b.String()
}
