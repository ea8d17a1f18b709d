package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"edgecam/core"
)

// serviceStopTimeout bounds how long a service stop request waits for the
// app to finish cleanup.
const serviceStopTimeout = 30 * time.Second

// serviceActions are the management actions accepted by "edgecam service".
var serviceActions = []string{"install", "uninstall", "start", "stop", "restart", "status"}

// program implements service.Interface. The app is built in Start so
// configuration errors surface in the service manager's log.
type program struct {
	app  *App
	done chan error
}

// Start implements service.Interface. It must not block.
func (p *program) Start(s service.Service) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return errors.New(describeStartupError(err))
	}
	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Sync()
		return err
	}

	p.app = app
	p.done = make(chan error, 1)
	go func() {
		p.done <- app.Run()
	}()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(s service.Service) error {
	if p.app == nil {
		return nil
	}
	p.app.Stop("service stop requested")

	select {
	case err := <-p.done:
		return err
	case <-time.After(serviceStopTimeout):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

// serviceConfig describes edgecam to the platform service manager
// (systemd, launchd or the Windows SCM).
func serviceConfig() *service.Config {
	return &service.Config{
		Name:        "edgecam",
		DisplayName: "edgecam edge detection stream",
		Description: "Streams live Canny edge detection of camera frames to browsers over WebSocket",
		Arguments:   []string{"run"},
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
}

func newService(prg *program) (service.Service, error) {
	s, err := service.New(prg, serviceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// runAsService hands control to the platform service manager.
func runAsService() error {
	s, err := newService(&program{})
	if err != nil {
		return err
	}
	if err := s.Run(); err != nil {
		return fmt.Errorf("service run failed: %w", err)
	}
	return nil
}

func newServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "service <" + strings.Join(serviceActions, "|") + ">",
		Short:     "Manage edgecam as a system service",
		ValidArgs: serviceActions,
		Args:      usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, err := newService(&program{})
			if err != nil {
				return err
			}

			action := args[0]
			if action == "status" {
				status, err := s.Status()
				if err != nil {
					return fmt.Errorf("failed to get service status: %w", err)
				}
				fmt.Fprintf(out, "Service is %s\n", statusName(status))
				return nil
			}

			if err := service.Control(s, action); err != nil {
				return withExitCode(core.ExitCodeError, fmt.Errorf("failed to %s service: %w", action, err))
			}
			fmt.Fprintf(out, "Service %s succeeded\n", action)
			return nil
		},
	}
}

// statusName is the human form of a service.Status.
//
// This is a pure function with no side effects.
func statusName(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "in an unknown state"
	}
}
