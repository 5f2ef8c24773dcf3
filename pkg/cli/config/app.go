package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// AppConfig holds CLI flags locating the workspace profile files
type AppConfig struct {
	paths []string
}

// Flags returns CLI flags for profile configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Workspace profile TOML file or directory of *.toml files (repeatable). The built-in profile is used when omitted",
			Sources:     cli.EnvVars("MENTIS_CONFIG"),
			Destination: &a.paths,
		},
	}
}

// Paths returns the configured profile locations
func (a *AppConfig) Paths() []string {
	return a.paths
}

// SetPaths overrides the configured profile locations
func (a *AppConfig) SetPaths(paths ...string) {
	a.paths = paths
}

// LoadProfiles reads every configured profile. Directories are expanded to
// their *.toml files in name order.
func (a *AppConfig) LoadProfiles() ([]*ProfileConfig, error) {
	if len(a.paths) == 0 {
		return []*ProfileConfig{DefaultProfile()}, nil
	}

	files, err := expandPaths(a.paths)
	if err != nil {
		return nil, err
	}

	profiles := make([]*ProfileConfig, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		cfg, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[cfg.Workspace.ID]; ok {
			return nil, goerr.Wrap(ErrDuplicateWorkspaceID, "workspace is defined in two files",
				goerr.V(WorkspaceIDKey, cfg.Workspace.ID),
				goerr.V(ConfigPathKey, path),
				goerr.V("previous_path", prev))
		}
		seen[cfg.Workspace.ID] = path
		profiles = append(profiles, cfg)
	}

	return profiles, nil
}

// Configure loads the profiles and builds the workspace registry
func (a *AppConfig) Configure() (*model.WorkspaceRegistry, error) {
	profiles, err := a.LoadProfiles()
	if err != nil {
		return nil, err
	}

	registry := model.NewWorkspaceRegistry()
	for _, p := range profiles {
		registry.Register(p.ToWorkspaceEntry())
		logging.Default().Info("Workspace loaded",
			"workspace_id", p.Workspace.ID,
			"categories", len(p.Categories),
		)
	}

	return registry, nil
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, goerr.Wrap(ErrConfigNotFound, "config path does not exist", goerr.V(ConfigPathKey, path))
			}
			return nil, goerr.Wrap(err, "failed to stat config path", goerr.V(ConfigPathKey, path))
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*.toml"))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list config directory", goerr.V(ConfigPathKey, path))
		}
		if len(matches) == 0 {
			return nil, goerr.Wrap(ErrConfigNotFound, "config directory has no *.toml file", goerr.V(ConfigPathKey, path))
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}
