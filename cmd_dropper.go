package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rl404/verniy"
	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/fuzzydate"
	"github.com/bigspawn/alter/internal/session"
	"github.com/bigspawn/alter/internal/tools/dropper"
)

func newDropperCommand() *cli.Command {
	return &cli.Command{
		Name:  "dropper",
		Usage: "Drop entries you have not touched for a while",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "drop entries last updated on or before this date (YYYY-MM-DD)"},
			&cli.StringSliceFlag{Name: "statuses", Usage: "statuses to consider", Value: []string{"CURRENT", "PAUSED"}},
			&cli.StringFlag{Name: "status", Usage: "status to move entries to", Value: string(verniy.MediaListStatusDropped)},
			&cli.StringSliceFlag{Name: "drop", Usage: "also drop these entry ids"},
			&cli.StringSliceFlag{Name: "keep", Usage: "never drop these entry ids"},
		},
		Action: runDropper,
	}
}

func runDropper(ctx context.Context, cmd *cli.Command) error {
	statuses, err := parseStatuses(cmd.StringSlice("statuses"))
	if err != nil {
		return err
	}
	target, err := parseStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	var actions []dropper.Action
	if s := cmd.String("older-than"); s != "" {
		date, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --older-than date %q, expected YYYY-MM-DD", s)
		}
		actions = append(actions, dropper.UpdateOlderThan{
			Date:         fuzzydate.EndOfDay(date),
			DropStatuses: statuses,
			Status:       target,
		})
	}

	drop, err := parseIDs(cmd.StringSlice("drop"))
	if err != nil {
		return err
	}
	for _, id := range drop {
		actions = append(actions, dropper.UpdateStatus{ID: id, Status: &target})
	}

	keep, err := parseIDs(cmd.StringSlice("keep"))
	if err != nil {
		return err
	}
	for _, id := range keep {
		actions = append(actions, dropper.UpdateStatus{ID: id})
	}

	if len(actions) == len(keep) {
		return fmt.Errorf("nothing to do: pass --older-than or --drop")
	}

	app, ctx, mediaType, err := connectTool(ctx, cmd)
	if err != nil {
		return err
	}

	opts := dropper.ListOptions(app.viewer.ID, mediaType)
	opts.StatusIn = statuses

	return runTool(ctx, app, toolRun[dropper.Entry, dropper.Action]{
		opts: opts,
		tool: session.Tool[dropper.Entry, dropper.Action]{
			Reduce:  dropper.Reduce,
			Count:   dropper.Count,
			Changes: dropper.Changes,
		},
		actions: func(list *anilist.List) ([]dropper.Action, error) {
			app.log.Debug("Considering %d %s entries", list.Len(), strings.ToLower(string(mediaType)))
			for _, id := range drop {
				if _, ok := list.Get(id); !ok {
					return nil, fmt.Errorf("entry %d is not on your list with one of %v", id, statuses)
				}
			}
			return actions, nil
		},
	})
}

func parseStatus(s string) (verniy.MediaListStatus, error) {
	status := verniy.MediaListStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(anilist.ListStatuses, status) {
		return "", fmt.Errorf("unknown list status %q", s)
	}
	return status, nil
}

func parseStatuses(values []string) ([]verniy.MediaListStatus, error) {
	var out []verniy.MediaListStatus
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := parseStatus(part)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(out, status) {
				out = append(out, status)
			}
		}
	}
	if len(out) == 0 {
		return slices.Clone(dropper.DefaultDropStatuses), nil
	}
	return out, nil
}
