package update

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk configuration of the update-agent CLI, read once
// at startup. It does not affect library usage of Pipeline/Manager
// directly; cmd/update-agent translates it into calls against them.
type Config struct {
	WorkingDir              string   `toml:"working_dir"`
	CurrentDirName          string   `toml:"current_dir_name"`
	GitHubOwner             string   `toml:"github_owner"`
	GitHubRepository        string   `toml:"github_repository"`
	DownloadFilenamePattern string   `toml:"download_filename_pattern"`
	ArchiveType             string   `toml:"archive_type"`
	FilenameContainsVersion bool     `toml:"filename_contains_version"`
	RetainedPaths           []string `toml:"retained_paths"`
	MainExecutable          string   `toml:"main_executable"`
	CheckIntervalSeconds    float64  `toml:"check_interval_seconds"`
	ProcessStopWaitSeconds  float64  `toml:"process_stop_wait_seconds"`
	SigningKeysPEM          []string `toml:"signing_keys_pem"`
}

// NewConfig returns a Config populated with conservative defaults.
func NewConfig() *Config {
	return &Config{
		CurrentDirName:         CurrentDirName,
		ArchiveType:            "zip",
		CheckIntervalSeconds:   60 * 5,
		ProcessStopWaitSeconds: 30,
	}
}

// LoadFile reads and merges filename's TOML contents into c.
func (c *Config) LoadFile(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return wrapErr(Misconfigured, "failed to read config file "+filename, err)
	}
	if err := toml.Unmarshal(raw, c); err != nil {
		return wrapErr(Misconfigured, "failed to parse config file "+filename, err)
	}
	return nil
}

// ArchiveTypeOf translates the config's textual archive type into an
// ArchiveType.
func (c *Config) ArchiveTypeOf() (ArchiveType, error) {
	switch c.ArchiveType {
	case "zip":
		return ArchiveZip, nil
	default:
		return ArchiveUnknown, wrapErr(Misconfigured, "unsupported archive_type: "+c.ArchiveType, nil)
	}
}
