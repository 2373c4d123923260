package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/reportd/reportd/pkg/app"
)

// program adapts the daemon loop to the service manager lifecycle.
type program struct {
	configPath string
	errCh      chan error
}

func (p *program) Start(_ service.Service) error {
	p.errCh = make(chan error, 1)
	go func() {
		p.errCh <- app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Version:    version,
			Commit:     commit,
			Date:       date,
		})
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	// The service manager delivers SIGTERM to the process; Run handles it
	// and drains in-flight work before returning.
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage reportd as a system service",
	}

	var cfgPath string
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to configuration file")

	newService := func() (service.Service, error) {
		svcConfig := &service.Config{
			Name:        "reportd",
			DisplayName: "reportd",
			Description: "Scheduler and runner for periodic read-only SQL reports",
			Arguments:   []string{"service", "run"},
		}
		if cfgPath != "" {
			svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
		}
		return service.New(&program{configPath: cfgPath}, svcConfig)
	}

	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the reportd system service", action),
			RunE: func(_ *cobra.Command, _ []string) error {
				svc, err := newService()
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Printf("Service %s: done\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run under the service manager (invoked by the manager, not directly)",
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	return cmd
}
