package main

import (
	"context"
	"time"

	update "github.com/ungive/update"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program implements service.Interface, running the check/download loop as
// the service's background work.
type program struct {
	configPath string
	cancel     context.CancelFunc
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

func (p *program) run(ctx context.Context) {
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		update.Logger().Errorf("update-agent: %v", err)
		return
	}
	interval := time.Duration(cfg.CheckIntervalSeconds * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		p.checkAndDownload(ctx, cfg)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *program) checkAndDownload(ctx context.Context, cfg *update.Config) {
	manager, err := newManager(cfg)
	if err != nil {
		update.Logger().Errorf("update-agent: %v", err)
		return
	}
	defer manager.ReleaseLock()
	pipeline, err := newPipeline(cfg, manager)
	if err != nil {
		update.Logger().Errorf("update-agent: %v", err)
		return
	}
	info, err := pipeline.GetLatest(ctx)
	if err != nil {
		update.Logger().Errorf("update-agent: check failed: %v", err)
		return
	}
	if info.State != update.NewVersionAvailable {
		return
	}
	if _, err := pipeline.Update(ctx, info.Version, info.URL); err != nil {
		update.Logger().Errorf("update-agent: download failed: %v", err)
		return
	}
	update.Logger().Infof("update-agent: staged %s", info.Version)
}

func newSVCConfig() *service.Config {
	return &service.Config{
		Name:        "update-agent",
		DisplayName: "Update Agent",
		Description: "Checks for, downloads, and stages application updates",
	}
}

func newServiceCommand(configPath *string) *cobra.Command {
	root := &cobra.Command{
		Use:   "service",
		Short: "Install, run, or control update-agent as a background service",
	}

	withService := func(run func(s service.Service) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			prg := &program{configPath: *configPath}
			s, err := service.New(prg, newSVCConfig())
			if err != nil {
				return err
			}
			return run(s)
		}
	}

	root.AddCommand(
		&cobra.Command{Use: "run", Short: "run the service in the foreground", RunE: withService(func(s service.Service) error { return s.Run() })},
		&cobra.Command{Use: "install", Short: "install the service", RunE: withService(func(s service.Service) error { return s.Install() })},
		&cobra.Command{Use: "uninstall", Short: "uninstall the service", RunE: withService(func(s service.Service) error { return s.Uninstall() })},
		&cobra.Command{Use: "start", Short: "start the installed service", RunE: withService(func(s service.Service) error { return s.Start() })},
		&cobra.Command{Use: "stop", Short: "stop the installed service", RunE: withService(func(s service.Service) error { return s.Stop() })},
	)
	addConfigFlags(root.PersistentFlags())
	return root
}
