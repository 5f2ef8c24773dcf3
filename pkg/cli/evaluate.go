package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/cli/config"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/mentis-app/mentis/pkg/repository/memory"
	"github.com/mentis-app/mentis/pkg/usecase"
	"github.com/mentis-app/mentis/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDiscordanceFound is returned with --fail-on-discordance when any file has a discordant category
	ErrDiscordanceFound = goerr.New("discordant categories found")

	errNoSnapshotFiles = goerr.New("at least one snapshot file is required")
)

// evaluation is the result for one snapshot file
type evaluation struct {
	File    string        `json:"file"`
	Summary model.Summary `json:"summary"`
}

func cmdEvaluate() *cli.Command {
	var appCfg config.AppConfig
	var workspace string
	var format string
	var output string
	var failOnDiscordance bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "workspace",
			Aliases:     []string{"w"},
			Usage:       "Workspace ID whose profile is used. Defaults to the only loaded workspace",
			Sources:     cli.EnvVars("MENTIS_WORKSPACE"),
			Destination: &workspace,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Report format [text|json]",
			Value:       "text",
			Destination: &format,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Report destination file (stdout when omitted)",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "fail-on-discordance",
			Usage:       "Exit with an error when any category is discordant",
			Destination: &failOnDiscordance,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:      "evaluate",
		Aliases:   []string{"e"},
		Usage:     "Evaluate snapshot files (JSON or YAML) against a workspace profile",
		ArgsUsage: "FILE...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			files := c.Args().Slice()
			if len(files) == 0 {
				return errNoSnapshotFiles
			}
			if format != "text" && format != "json" {
				return goerr.New("invalid report format", goerr.V("format", format))
			}

			registry, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load workspace profiles")
			}
			wsID, err := selectWorkspace(registry, workspace)
			if err != nil {
				return err
			}

			uc := usecase.New(memory.New(), registry)
			results, err := evaluateFiles(ctx, uc.Assessment, wsID, files)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if format == "json" {
				if err := writeJSONReport(&buf, results); err != nil {
					return err
				}
			} else {
				writeTextReport(&buf, registry, wsID, results)
			}

			var w io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(filepath.Clean(output))
				if err != nil {
					return goerr.Wrap(err, "failed to create report file", goerr.V("path", output))
				}
				defer safe.Close(ctx, f)
				w = f
			}
			safe.Write(ctx, w, buf.Bytes())

			if failOnDiscordance {
				for _, r := range results {
					if r.Summary.HasDiscordance() {
						return goerr.Wrap(ErrDiscordanceFound, "discordance in snapshot", goerr.V("file", r.File))
					}
				}
			}
			return nil
		},
	}
}

func selectWorkspace(registry *model.WorkspaceRegistry, id string) (types.WorkspaceID, error) {
	if id != "" {
		entry, err := registry.Get(types.WorkspaceID(id))
		if err != nil {
			return "", err
		}
		return entry.Workspace.ID, nil
	}

	workspaces := registry.Workspaces()
	if len(workspaces) != 1 {
		return "", goerr.New("--workspace is required when several workspaces are loaded",
			goerr.V("workspace_count", len(workspaces)))
	}
	return workspaces[0].ID, nil
}

// evaluateFiles loads and evaluates every file concurrently. Results keep the argument order.
func evaluateFiles(ctx context.Context, uc *usecase.AssessmentUseCase, wsID types.WorkspaceID, files []string) ([]evaluation, error) {
	results := make([]evaluation, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		eg.Go(func() error {
			snapshot, err := loadSnapshot(file)
			if err != nil {
				return err
			}
			summary, err := uc.Evaluate(ctx, wsID, snapshot)
			if err != nil {
				return goerr.Wrap(err, "failed to evaluate snapshot", goerr.V("file", file))
			}
			results[i] = evaluation{File: file, Summary: summary}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// loadSnapshot decodes a snapshot file. .yaml and .yml are read as YAML, anything else as JSON.
func loadSnapshot(path string) (model.Snapshot, error) {
	var snapshot model.Snapshot

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return snapshot, goerr.Wrap(err, "failed to read snapshot file", goerr.V("file", path))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return snapshot, goerr.Wrap(usecase.ErrInvalidInput, "failed to parse YAML snapshot",
				goerr.V("file", path), goerr.V("cause", err.Error()))
		}
	default:
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return snapshot, goerr.Wrap(usecase.ErrInvalidInput, "failed to parse JSON snapshot",
				goerr.V("file", path), goerr.V("cause", err.Error()))
		}
	}
	return snapshot, nil
}

func writeJSONReport(w io.Writer, results []evaluation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return goerr.Wrap(err, "failed to encode report")
	}
	return nil
}

func bandText(b types.Band) string {
	if b.IsNotApplicable() {
		return "N/A"
	}
	return b.String()
}

func writeTextReport(w io.Writer, registry *model.WorkspaceRegistry, wsID types.WorkspaceID, results []evaluation) {
	var names map[types.CategoryID]string
	if entry, err := registry.Get(wsID); err == nil {
		names = make(map[types.CategoryID]string, len(entry.Profile.Categories))
		for _, cat := range entry.Profile.Categories {
			names[cat.ID] = cat.Name
		}
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", bold(r.File), faint("(workspace "+wsID.String()+")"))

		for _, c := range r.Summary.Categories {
			name := names[c.CategoryID]
			if name == "" {
				name = c.CategoryID.String()
			}

			agreement := faint(c.Agreement.String())
			switch c.Agreement {
			case types.AgreementAgree:
				agreement = green(c.Agreement.String())
			case types.AgreementDisagree:
				agreement = red(c.Agreement.String())
			}

			fmt.Fprintf(w, "  %-32s aggregate %4d  items %2d  automatic %-9s  expert %-9s  %s\n",
				name, c.Aggregate, c.RatedItems, bandText(c.AutomaticBand), bandText(c.ExpertBand), agreement)
		}

		fmt.Fprintf(w, "  concordant: %s\n", joinCategories(r.Summary.Concordant))
		fmt.Fprintf(w, "  discordant: %s\n", joinCategories(r.Summary.Discordant))
	}
}

func joinCategories(ids []types.CategoryID) string {
	if len(ids) == 0 {
		return "-"
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return strings.Join(s, ", ")
}
