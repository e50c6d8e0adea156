package anilist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rl404/verniy"

	"github.com/bigspawn/alter/internal/config"
	"github.com/bigspawn/alter/internal/logger"
)

// ErrDuplicateEntry is returned when a batch names the same entry twice.
var ErrDuplicateEntry = errors.New("entry appears twice in one batch")

// Changes are the fields to write for one entry. Nil fields are left alone.
// A blank date clears the stored date.
type Changes struct {
	Score           *int
	Status          *verniy.MediaListStatus
	StartedAt       *verniy.FuzzyDate
	CompletedAt     *verniy.FuzzyDate
	Progress        *int
	ProgressVolumes *int
	Notes           *string
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.Score == nil && c.Status == nil && c.StartedAt == nil && c.CompletedAt == nil &&
		c.Progress == nil && c.ProgressVolumes == nil && c.Notes == nil
}

// GeneratesActivity reports whether saving would post a list activity.
func (c Changes) GeneratesActivity() bool {
	return c.Status != nil || c.Progress != nil
}

// EntryChanges pairs an entry id with the fields to write.
type EntryChanges struct {
	ID      int
	Changes Changes
}

// Chunk is one mutation document holding up to the configured number of
// aliased SaveMediaListEntry calls.
type Chunk struct {
	Query     string
	Variables map[string]any
	IDs       []int
}

// Batch is the full set of chunks for one save.
type Batch struct {
	Chunks []Chunk
	// Activity is set when any entry touches a field that posts activity.
	Activity bool
}

// Entries returns the number of entries across all chunks.
func (b Batch) Entries() int {
	n := 0
	for _, c := range b.Chunks {
		n += len(c.IDs)
	}
	return n
}

// fuzzyDateInput always serializes every component so that nil clears it.
type fuzzyDateInput struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

func toDateInput(d verniy.FuzzyDate) fuzzyDateInput {
	return fuzzyDateInput{Year: d.Year, Month: d.Month, Day: d.Day}
}

type field struct {
	arg     string
	varType string
	value   any
}

func (c Changes) fields() []field {
	var fs []field
	if c.Score != nil {
		fs = append(fs, field{"scoreRaw", "Int", *c.Score})
	}
	if c.Status != nil {
		fs = append(fs, field{"status", "MediaListStatus", *c.Status})
	}
	if c.StartedAt != nil {
		fs = append(fs, field{"startedAt", "FuzzyDateInput", toDateInput(*c.StartedAt)})
	}
	if c.CompletedAt != nil {
		fs = append(fs, field{"completedAt", "FuzzyDateInput", toDateInput(*c.CompletedAt)})
	}
	if c.Progress != nil {
		fs = append(fs, field{"progress", "Int", *c.Progress})
	}
	if c.ProgressVolumes != nil {
		fs = append(fs, field{"progressVolumes", "Int", *c.ProgressVolumes})
	}
	if c.Notes != nil {
		fs = append(fs, field{"notes", "String", *c.Notes})
	}
	return fs
}

// BuildBatch turns per-entry changes into mutation chunks. Entries with no
// fields set are dropped. Variables are suffixed with the entry id so no
// two entries of a chunk share a name.
func BuildBatch(changes []EntryChanges, chunkSize int) (Batch, error) {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}

	var batch Batch
	seen := make(map[int]struct{}, len(changes))
	pending := make([]EntryChanges, 0, len(changes))

	for _, ec := range changes {
		if ec.Changes.IsEmpty() {
			continue
		}
		if _, ok := seen[ec.ID]; ok {
			return Batch{}, fmt.Errorf("%w: %d", ErrDuplicateEntry, ec.ID)
		}
		seen[ec.ID] = struct{}{}
		if ec.Changes.GeneratesActivity() {
			batch.Activity = true
		}
		pending = append(pending, ec)
	}

	for start := 0; start < len(pending); start += chunkSize {
		end := min(start+chunkSize, len(pending))
		batch.Chunks = append(batch.Chunks, buildChunk(pending[start:end]))
	}

	return batch, nil
}

func buildChunk(entries []EntryChanges) Chunk {
	chunk := Chunk{
		Variables: make(map[string]any),
		IDs:       make([]int, 0, len(entries)),
	}

	var decls, body strings.Builder
	for i, ec := range entries {
		id := strconv.Itoa(ec.ID)
		args := make([]string, 0, 8)

		for _, f := range ec.Changes.fields() {
			name := f.arg + id
			chunk.Variables[name] = f.value
			fmt.Fprintf(&decls, "$%s: %s, ", name, f.varType)
			args = append(args, fmt.Sprintf("%s: $%s", f.arg, name))
		}

		entryVar := "entry" + id
		chunk.Variables[entryVar] = ec.ID
		fmt.Fprintf(&decls, "$%s: Int, ", entryVar)
		args = append(args, "id: $"+entryVar)

		fmt.Fprintf(&body, "  update%d: SaveMediaListEntry(%s) {\n    id\n  }\n", i, strings.Join(args, ", "))
		chunk.IDs = append(chunk.IDs, ec.ID)
	}

	chunk.Query = fmt.Sprintf("mutation (%s) {\n%s}", strings.TrimSuffix(decls.String(), ", "), body.String())
	return chunk
}

// SaveError reports a save that stopped partway. Chunks before Applied
// were written; the rest were not attempted.
type SaveError struct {
	Applied int
	Total   int
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saved %d of %d chunks: %v", e.Applied, e.Total, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// SaveReport summarizes a save.
type SaveReport struct {
	OperationID        string
	Entries            int
	Chunks             int
	Applied            int
	ActivitySuppressed bool
	Duration           time.Duration
}

// Saver submits batches sequentially.
type Saver struct {
	r              Requester
	chunkSize      int
	delayThreshold int
	delay          time.Duration
	sleep          func(time.Duration)
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithChunkSize sets the number of entries per mutation document.
func WithChunkSize(n int) SaverOption {
	return func(s *Saver) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithDelay pauses for d after each chunk except the last when a batch
// has more than threshold chunks.
func WithDelay(threshold int, d time.Duration) SaverOption {
	return func(s *Saver) {
		s.delayThreshold = threshold
		s.delay = d
	}
}

// NewSaver creates a Saver using the default batch settings.
func NewSaver(r Requester, opts ...SaverOption) *Saver {
	s := &Saver{
		r:              r,
		chunkSize:      config.DefaultChunkSize,
		delayThreshold: config.DefaultDelayThreshold,
		delay:          config.DefaultDelay,
		sleep:          time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes every change. Once the first chunk is sent, cancelling ctx no
// longer stops the save. The first failing chunk aborts the rest and is
// reported as *SaveError.
func (s *Saver) Save(ctx context.Context, changes []EntryChanges) (SaveReport, error) {
	start := time.Now()
	report := SaveReport{OperationID: uuid.NewString()}

	batch, err := BuildBatch(changes, s.chunkSize)
	if err != nil {
		return report, err
	}
	report.Entries = batch.Entries()
	report.Chunks = len(batch.Chunks)
	if report.Chunks == 0 {
		return report, nil
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	ctx = context.WithoutCancel(ctx)

	logger.Debug(ctx, "Save %s: %d entries in %d chunks", report.OperationID, report.Entries, report.Chunks)

	submit := func() error {
		for i, chunk := range batch.Chunks {
			logger.Debug(ctx, "Sending chunk %d/%d (%d entries)", i+1, len(batch.Chunks), len(chunk.IDs))
			if _, err := s.r.Request(ctx, chunk.Query, chunk.Variables); err != nil {
				return &SaveError{Applied: i, Total: len(batch.Chunks), Err: err}
			}
			report.Applied = i + 1
			if len(batch.Chunks) > s.delayThreshold && i < len(batch.Chunks)-1 {
				s.sleep(s.delay)
			}
		}
		return nil
	}

	if batch.Activity {
		report.ActivitySuppressed = true
		err = WithListActivityDisabled(ctx, s.r, submit)
	} else {
		err = submit()
	}

	report.Duration = time.Since(start)
	return report, err
}
