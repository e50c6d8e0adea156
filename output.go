package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/fuzzydate"
	"github.com/bigspawn/alter/internal/logger"
	"github.com/bigspawn/alter/internal/score"
)

const maxNoteWidth = 40

// describeChanges renders one line per changed field, old value first.
func describeChanges(entry anilist.Entry, c anilist.Changes, system score.System) string {
	var parts []string

	if c.Score != nil {
		from, to := strconv.Itoa(entry.Score), strconv.Itoa(*c.Score)
		if system != nil {
			from, to = system.Label(entry.Score), system.Label(*c.Score)
		}
		parts = append(parts, fmt.Sprintf("score %s → %s", from, to))
	}
	if c.Status != nil {
		parts = append(parts, fmt.Sprintf("status %s → %s", entry.Status, *c.Status))
	}
	if c.Progress != nil {
		parts = append(parts, fmt.Sprintf("progress %d → %d", entry.Progress, *c.Progress))
	}
	if c.ProgressVolumes != nil {
		parts = append(parts, fmt.Sprintf("volumes %d → %d", entry.ProgressVolumes, *c.ProgressVolumes))
	}
	if c.StartedAt != nil {
		parts = append(parts, fmt.Sprintf("started %s → %s", fuzzydate.String(entry.StartedAt), fuzzydate.String(*c.StartedAt)))
	}
	if c.CompletedAt != nil {
		parts = append(parts, fmt.Sprintf("completed %s → %s", fuzzydate.String(entry.CompletedAt), fuzzydate.String(*c.CompletedAt)))
	}
	if c.Notes != nil {
		parts = append(parts, fmt.Sprintf("notes %q → %q", truncate(entry.Notes), truncate(*c.Notes)))
	}

	return strings.Join(parts, ", ")
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= maxNoteWidth {
		return s
	}
	return string(r[:maxNoteWidth-1]) + "…"
}

// printChanges lists every pending change.
func printChanges(log *logger.Logger, list *anilist.List, changes []anilist.EntryChanges, system score.System, lang string) {
	for _, c := range changes {
		entry, ok := list.Get(c.ID)
		if !ok {
			continue
		}
		title := entry.Media.Title.Preferred(lang)
		if title == "" {
			title = "#" + strconv.Itoa(entry.Media.ID)
		}
		log.InfoChange(title, describeChanges(entry, c.Changes, system))
	}
}

// confirm asks a yes/no question. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// printReport summarizes a finished save.
func printReport(log *logger.Logger, r anilist.SaveReport) {
	log.InfoSuccess("Saved %d %s in %d %s (%v)",
		r.Entries, plural(r.Entries, "entry", "entries"),
		r.Chunks, plural(r.Chunks, "request", "requests"),
		r.Duration.Round(100*time.Millisecond))
	if r.ActivitySuppressed {
		log.Info("  List activity was suppressed during the save and restored afterwards")
	}
	log.Debug("Operation %s", r.OperationID)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
