package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/model"
	domainConfig "github.com/mentis-app/mentis/pkg/domain/model/config"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default_profile.toml
var defaultProfileTOML []byte

// ProfileConfig is the TOML representation of one workspace and its risk profile
type ProfileConfig struct {
	Workspace  WorkspaceConfig  `toml:"workspace"`
	Categories []CategoryConfig `toml:"category"`
}

// WorkspaceConfig identifies the workspace a profile belongs to
type WorkspaceConfig struct {
	ID            string `toml:"id"`
	Name          string `toml:"name"`
	UnratedPolicy string `toml:"unrated_policy"`
	SlackChannel  string `toml:"slack_channel"`
}

// CategoryConfig represents a category with its items and threshold table
type CategoryConfig struct {
	ID          string       `toml:"id"`
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Thresholds  []float64    `toml:"thresholds"`
	Items       []ItemConfig `toml:"item"`
}

// ItemConfig represents a rated item
type ItemConfig struct {
	ID          string `toml:"id"`
	Label       string `toml:"label"`
	Description string `toml:"description"`
}

// Validate checks if the WorkspaceConfig is valid
func (w *WorkspaceConfig) Validate() error {
	if err := types.WorkspaceID(w.ID).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid workspace ID", goerr.V(WorkspaceIDKey, w.ID), goerr.V("cause", err.Error()))
	}
	if w.Name == "" {
		return goerr.Wrap(ErrMissingName, "workspace name is required", goerr.V(WorkspaceIDKey, w.ID))
	}
	if w.UnratedPolicy != "" && !types.UnratedPolicy(w.UnratedPolicy).IsValid() {
		return goerr.Wrap(ErrInvalidConfig, "unknown unrated policy", goerr.V(UnratedPolicyKey, w.UnratedPolicy))
	}
	return nil
}

// Validate checks if the CategoryConfig is valid
func (c *CategoryConfig) Validate() error {
	if err := types.CategoryID(c.ID).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid category ID", goerr.V(CategoryIDKey, c.ID), goerr.V("cause", err.Error()))
	}
	if c.Name == "" {
		return goerr.Wrap(ErrMissingName, "category name is required", goerr.V(CategoryIDKey, c.ID))
	}

	if len(c.Thresholds) != types.BandCount {
		return goerr.Wrap(ErrInvalidThresholds, "wrong number of thresholds",
			goerr.V(CategoryIDKey, c.ID),
			goerr.V(ThresholdsKey, c.Thresholds))
	}
	for i := 1; i < len(c.Thresholds); i++ {
		// written as a negation so that NaN is rejected too
		if !(c.Thresholds[i] > c.Thresholds[i-1]) {
			return goerr.Wrap(ErrNonAscendingThresholds, "threshold is not greater than the previous one",
				goerr.V(CategoryIDKey, c.ID),
				goerr.V(ThresholdsKey, c.Thresholds),
				goerr.V("index", i))
		}
	}

	if len(c.Items) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "category requires at least one item", goerr.V(CategoryIDKey, c.ID))
	}

	itemIDs := make(map[string]bool, len(c.Items))
	for i, item := range c.Items {
		if err := types.ItemID(item.ID).Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid item ID",
				goerr.V(CategoryIDKey, c.ID),
				goerr.V(ItemIDKey, item.ID),
				goerr.V(ItemIndexKey, i),
				goerr.V("cause", err.Error()))
		}
		if item.Label == "" {
			return goerr.Wrap(ErrMissingName, "item label is required",
				goerr.V(CategoryIDKey, c.ID),
				goerr.V(ItemIDKey, item.ID))
		}
		if itemIDs[item.ID] {
			return goerr.Wrap(ErrDuplicateItemID, "item ID appears twice in category",
				goerr.V(CategoryIDKey, c.ID),
				goerr.V(ItemIDKey, item.ID),
				goerr.V(ItemIndexKey, i))
		}
		itemIDs[item.ID] = true
	}

	return nil
}

// Validate checks if the ProfileConfig is valid
func (p *ProfileConfig) Validate() error {
	if err := p.Workspace.Validate(); err != nil {
		return err
	}

	if len(p.Categories) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "profile requires at least one category", goerr.V(WorkspaceIDKey, p.Workspace.ID))
	}

	categoryIDs := make(map[string]bool, len(p.Categories))
	for i := range p.Categories {
		cat := &p.Categories[i]
		if err := cat.Validate(); err != nil {
			return goerr.Wrap(err, "invalid category", goerr.V(CategoryIndexKey, i))
		}
		if categoryIDs[cat.ID] {
			return goerr.Wrap(ErrDuplicateCategoryID, "category ID appears twice",
				goerr.V(CategoryIDKey, cat.ID),
				goerr.V(CategoryIndexKey, i))
		}
		categoryIDs[cat.ID] = true
	}

	return nil
}

// ParseProfile decodes and validates a TOML profile
func ParseProfile(data []byte) (*ProfileConfig, error) {
	var cfg ProfileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML profile", goerr.V("cause", err.Error()))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProfile reads and validates a TOML profile file
func LoadProfile(path string) (*ProfileConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "profile file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read profile file", goerr.V(ConfigPathKey, path))
	}

	cfg, err := ParseProfile(data)
	if err != nil {
		return nil, goerr.Wrap(err, "profile validation failed", goerr.V(ConfigPathKey, path))
	}
	return cfg, nil
}

// DefaultProfile returns the built-in profile used when no file is configured
func DefaultProfile() *ProfileConfig {
	cfg, err := ParseProfile(defaultProfileTOML)
	if err != nil {
		panic("built-in profile is invalid: " + err.Error())
	}
	return cfg
}

// ToDomainProfile converts the validated configuration to the domain reference data
func (p *ProfileConfig) ToDomainProfile() *domainConfig.RiskProfile {
	categories := make([]domainConfig.Category, len(p.Categories))
	for i, cat := range p.Categories {
		items := make([]domainConfig.Item, len(cat.Items))
		for j, item := range cat.Items {
			items[j] = domainConfig.Item{
				ID:          types.ItemID(item.ID),
				Label:       item.Label,
				Description: item.Description,
			}
		}

		var thresholds [types.BandCount]float64
		copy(thresholds[:], cat.Thresholds)

		categories[i] = domainConfig.Category{
			ID:          types.CategoryID(cat.ID),
			Name:        cat.Name,
			Description: cat.Description,
			Items:       items,
			Thresholds:  thresholds,
		}
	}

	return &domainConfig.RiskProfile{
		Categories:    categories,
		UnratedPolicy: types.UnratedPolicy(p.Workspace.UnratedPolicy).Normalize(),
	}
}

// ToWorkspaceEntry builds the registry entry for this profile
func (p *ProfileConfig) ToWorkspaceEntry() *model.WorkspaceEntry {
	return &model.WorkspaceEntry{
		Workspace: model.Workspace{
			ID:   types.WorkspaceID(p.Workspace.ID),
			Name: p.Workspace.Name,
		},
		Profile:      p.ToDomainProfile(),
		SlackChannel: p.Workspace.SlackChannel,
	}
}
