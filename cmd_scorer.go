package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/rl404/verniy"
	"github.com/urfave/cli/v3"
	yaml "gopkg.in/yaml.v2"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/score"
	"github.com/bigspawn/alter/internal/session"
	"github.com/bigspawn/alter/internal/tools/scorer"
)

func newScorerCommand() *cli.Command {
	return &cli.Command{
		Name:  "scorer",
		Usage: "Change scores in your score format",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "set", Usage: "set a score, as entry-id=score; 5 star formats also take 3* or ★★★☆☆, 3 point formats :( :| :)"},
			&cli.StringSliceFlag{Name: "inc", Usage: "raise an entry's score by one step"},
			&cli.StringSliceFlag{Name: "dec", Usage: "lower an entry's score by one step"},
			&cli.BoolFlag{Name: "large", Usage: "use the large step for --inc and --dec where the format has one"},
			&cli.StringSliceFlag{Name: "clear", Usage: "remove an entry's score"},
			&cli.StringFlag{Name: "file", Usage: "YAML score sheet mapping entry ids to scores"},
			&cli.StringFlag{Name: "format", Usage: "score format of the given values (defaults to your profile's)"},
			&cli.BoolFlag{Name: "hide-scores", Usage: "don't print scores; count every scored entry as pending"},
		},
		Action: runScorer,
	}
}

func runScorer(ctx context.Context, cmd *cli.Command) error {
	app, ctx, mediaType, err := connectTool(ctx, cmd)
	if err != nil {
		return err
	}

	format := app.viewer.ScoreFormat
	if f := cmd.String("format"); f != "" {
		format = verniy.ScoreFormat(f)
	}
	system, err := score.For(format)
	if err != nil {
		return fmt.Errorf("%w (known formats: %v)", err, score.Formats())
	}
	app.log.Debug("Using score format %s", score.Name(format))

	actions, err := scorerActions(cmd, system)
	if err != nil {
		return err
	}

	shown := system
	if format != app.viewer.ScoreFormat {
		if shown, err = score.For(app.viewer.ScoreFormat); err != nil {
			return err
		}
		actions = append(actions, scorer.UpdateScoreDisplays{System: shown})
	}

	hide := cmd.Bool("hide-scores")
	return runTool(ctx, app, toolRun[scorer.Entry, scorer.Action]{
		opts:        scorer.ListOptions(app.viewer.ID, mediaType),
		tool:        scorerTool(system, hide),
		actions:     func(*anilist.List) ([]scorer.Action, error) { return actions, nil },
		system:      shown,
		hideChanges: hide,
	})
}

// scorerTool wires the scorer into a session. With hidden scores the
// pending count includes unchanged entries so it gives nothing away.
func scorerTool(system score.System, hide bool) session.Tool[scorer.Entry, scorer.Action] {
	tool := scorer.Tool{System: system}
	return session.Tool[scorer.Entry, scorer.Action]{
		Reduce: tool.Reduce,
		Count: func(list *anilist.List, d draft.Draft[scorer.Entry]) (int, bool) {
			c, ok := scorer.Count(list, d)
			if hide {
				return c.Perceived, ok
			}
			return c.Actual, ok
		},
		Changes: scorer.Changes,
	}
}

func scorerActions(cmd *cli.Command, system score.System) ([]scorer.Action, error) {
	var actions []scorer.Action

	if path := cmd.String("file"); path != "" {
		sheet, err := loadScoreSheet(path)
		if err != nil {
			return nil, err
		}
		for _, id := range slices.Sorted(maps.Keys(sheet)) {
			a, err := scoreUpdate(system, id, sheet[id])
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
	}

	sets, err := parseAssignments(cmd.StringSlice("set"))
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		a, err := scoreUpdate(system, s.ID, s.Value)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	large := cmd.Bool("large")
	for _, step := range []struct {
		flag string
		dir  int
	}{{"inc", 1}, {"dec", -1}} {
		ids, err := parseIDs(cmd.StringSlice(step.flag))
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			actions = append(actions, scorer.Step{ID: id, Dir: step.dir, Large: large})
		}
	}

	cleared, err := parseIDs(cmd.StringSlice("clear"))
	if err != nil {
		return nil, err
	}
	for _, id := range cleared {
		actions = append(actions, scorer.UpdateScore{ID: id, Display: "0"})
	}

	if len(actions) == 0 {
		return nil, fmt.Errorf("nothing to do: pass --set, --inc, --dec, --clear or --file")
	}
	return actions, nil
}

// scoreUpdate rejects values the score format can't read, which the
// scorer would otherwise keep as an unsaveable display.
func scoreUpdate(system score.System, id int, display string) (scorer.UpdateScore, error) {
	if _, err := system.ToRaw(display); err != nil {
		return scorer.UpdateScore{}, fmt.Errorf("entry %d: %w", id, err)
	}
	return scorer.UpdateScore{ID: id, Display: display}, nil
}

// loadScoreSheet reads a YAML mapping of entry id to display score.
func loadScoreSheet(path string) (map[int]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied score sheet
	if err != nil {
		return nil, fmt.Errorf("error reading score sheet: %w", err)
	}
	sheet := make(map[int]string)
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("error decoding score sheet: %w", err)
	}
	return sheet, nil
}
