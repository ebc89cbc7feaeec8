package main

import (
	"fmt"

	update "github.com/ungive/update"
)

var currentVersionFlag string

func loadConfig(configPath string) (*update.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg := update.NewConfig()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func currentVersion() (update.VersionNumber, error) {
	if currentVersionFlag == "" {
		return update.VersionNumber{}, fmt.Errorf("--current-version is required")
	}
	return update.ParseVersionNumber(currentVersionFlag, "")
}

func newManager(cfg *update.Config) (*update.Manager, error) {
	version, err := currentVersion()
	if err != nil {
		return nil, err
	}
	manager, err := update.NewManager(cfg.WorkingDir, version)
	if err != nil {
		return nil, err
	}
	if cfg.CurrentDirName != "" {
		manager.SetCurrentDirName(cfg.CurrentDirName)
	}
	if err := manager.SetRetainedPaths(cfg.RetainedPaths); err != nil {
		return nil, err
	}
	return manager, nil
}

func newPipeline(cfg *update.Config, manager *update.Manager) (*update.Pipeline, error) {
	if cfg.GitHubOwner == "" || cfg.GitHubRepository == "" {
		return nil, fmt.Errorf("github_owner and github_repository are required")
	}
	archiveType, err := cfg.ArchiveTypeOf()
	if err != nil {
		return nil, err
	}

	pipeline := update.NewPipeline(manager)
	pipeline.SetSource(update.NewGitHubSource(cfg.GitHubOwner, cfg.GitHubRepository))
	pipeline.SetArchiveType(archiveType)
	if err := pipeline.SetDownloadFilenamePattern(cfg.DownloadFilenamePattern); err != nil {
		return nil, err
	}
	pipeline.SetFilenameContainsVersion(cfg.FilenameContainsVersion)
	pipeline.AddContentOperation(update.IgnoreFailure(update.FlattenExtractedDirectory()))
	if len(cfg.SigningKeysPEM) > 0 {
		pipeline.AddVerification(update.NewSHA256SumsVerifier("SHA256SUMS"))
		pipeline.AddVerification(update.NewMessageDigestVerifier(
			"SHA256SUMS", "SHA256SUMS.sig", "PEM", "ED25519", cfg.SigningKeysPEM...))
	}
	return pipeline, nil
}
