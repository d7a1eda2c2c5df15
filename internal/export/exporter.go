// Package export drives the per-conversation pipeline: select conversations,
// stream each day's rendered HTML into an index page, rewrite attachment
// links and build the table of contents.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tOgg1/explode/internal/archive"
	"github.com/tOgg1/explode/internal/attach"
	"github.com/tOgg1/explode/internal/config"
	"github.com/tOgg1/explode/internal/diag"
	"github.com/tOgg1/explode/internal/logging"
	"github.com/tOgg1/explode/internal/render"
)

const conversationDirPerm = 0o755

// target is one conversation to export: SourceDir names the day-file
// directory inside the export, DirName the output directory.
type target struct {
	SourceDir string
	DirName   string
}

// Exporter converts a workspace export into static pages.
type Exporter struct {
	cfg       *config.Config
	workspace *archive.Workspace
	destDir   string

	renderer *render.Renderer
	rewriter *attach.Rewriter
	diag     *diag.Recorder
}

// New wires an Exporter for the loaded workspace.
func New(cfg *config.Config, workspace *archive.Workspace, destDir string, downloader attach.Downloader) *Exporter {
	resolver := workspace.Resolver()
	return &Exporter{
		cfg:       cfg,
		workspace: workspace,
		destDir:   destDir,
		renderer:  render.New(resolver.DisplayName),
		rewriter:  attach.NewRewriter(downloader, cfg.Attachments.Download, cfg.Attachments.MaxConcurrent),
		diag:      diag.NewRecorder(logging.Component("export")),
	}
}

// Diagnostics exposes the run's diagnostics recorder.
func (e *Exporter) Diagnostics() *diag.Recorder {
	return e.diag
}

// Run exports every selected conversation sequentially, logging through the
// context logger when one is attached. A storage failure aborts only the
// conversation it hit; any other failure aborts the run.
func (e *Exporter) Run(ctx context.Context) error {
	targets, err := e.selectTargets()
	if err != nil {
		return err
	}

	log := logging.FromContext(ctx)
	log.Info().Int("conversations", len(targets)).Msg("starting export")
	for _, t := range targets {
		if err := e.exportConversation(ctx, t); err != nil {
			var storageErr *attach.StorageError
			if errors.As(err, &storageErr) {
				log.Error().Err(err).Str("conversation", t.DirName).Msg("storage failure, conversation aborted")
				continue
			}
			return fmt.Errorf("export %s: %w", t.DirName, err)
		}
	}
	e.diag.LogSummary()
	return nil
}

// selectTargets applies the channel and DM selection rules. The all switch
// overrides only/except; a named channel that does not exist is an error.
func (e *Exporter) selectTargets() ([]target, error) {
	sel := e.cfg.Selection
	channels := e.workspace.AllChannels()

	var targets []target
	addChannel := func(ch archive.Conversation) {
		targets = append(targets, target{SourceDir: ch.Name, DirName: ch.Name})
	}

	switch {
	case sel.AllChannels:
		for _, ch := range channels {
			addChannel(ch)
		}
	default:
		if len(sel.OnlyChannels) > 0 {
			for _, name := range sel.OnlyChannels {
				ch, ok := findChannel(channels, name)
				if !ok {
					return nil, fmt.Errorf("channel not found: %s", name)
				}
				if !contains(sel.ExceptChannels, ch.Name) {
					addChannel(ch)
				}
			}
		} else if len(sel.ExceptChannels) > 0 {
			for _, ch := range channels {
				if !contains(sel.ExceptChannels, ch.Name) {
					addChannel(ch)
				}
			}
		}
	}

	addDM := func(dm archive.DM) {
		targets = append(targets, target{SourceDir: dm.ID, DirName: e.workspace.DMDirName(dm)})
	}

	switch {
	case sel.AllDMs:
		for _, dm := range e.workspace.DMs {
			addDM(dm)
		}
	default:
		if len(sel.OnlyDMs) > 0 {
			for _, id := range sel.OnlyDMs {
				dm, ok := findDM(e.workspace.DMs, id)
				if !ok {
					return nil, fmt.Errorf("DM not found: %s", id)
				}
				if !contains(sel.ExceptDMs, dm.ID) {
					addDM(dm)
				}
			}
		} else if len(sel.ExceptDMs) > 0 {
			for _, dm := range e.workspace.DMs {
				if !contains(sel.ExceptDMs, dm.ID) {
					addDM(dm)
				}
			}
		}
	}

	return targets, nil
}

// exportConversation streams one conversation's days into index.html and
// caches its attachments under files/.
func (e *Exporter) exportConversation(ctx context.Context, t target) error {
	log := logging.WithConversation(t.DirName)

	outDir := filepath.Join(e.destDir, t.DirName)
	if err := os.MkdirAll(outDir, conversationDirPerm); err != nil {
		return &attach.StorageError{Path: outDir, Err: err}
	}

	dayFiles, err := archive.ListDayFiles(e.workspace.SourceDir, t.SourceDir)
	if err != nil {
		return err
	}
	if len(dayFiles) == 0 {
		log.Warn().Msg("no day files, skipping")
		return nil
	}

	indexPath := filepath.Join(outDir, "index.html")
	out, err := os.Create(indexPath)
	if err != nil {
		return &attach.StorageError{Path: indexPath, Err: err}
	}
	defer out.Close()

	write := func(content string) error {
		if _, err := out.WriteString(content); err != nil {
			return &attach.StorageError{Path: indexPath, Err: err}
		}
		return nil
	}

	if err := write(pagePrepend + chatSectionPrepend); err != nil {
		return err
	}

	var toc tocBuilder
	for i, dayFile := range dayFiles {
		day, err := e.exportDay(ctx, dayFile, t.DirName, outDir)
		if err != nil {
			return err
		}
		toc.Add(day.Date, day.DayID, day.DayLabel)
		if err := write(day.HTML); err != nil {
			return err
		}
		log.Debug().Int("done", i+1).Int("total", len(dayFiles)).Msg("day exported")
	}

	if err := write(chatSectionAppend + tocSectionPrepend); err != nil {
		return err
	}
	if err := write(toc.HTML()); err != nil {
		return err
	}
	if err := write(tocSectionAppend + pageAppend); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return &attach.StorageError{Path: indexPath, Err: err}
	}

	log.Info().Int("days", len(dayFiles)).Msg("conversation exported")
	return nil
}

// exportDay runs one day through the full pipeline: load, sort, reconcile,
// render, rewrite links and settle downloads.
func (e *Exporter) exportDay(ctx context.Context, dayFile archive.DayFile, dirName, outDir string) (*render.Day, error) {
	log := logging.WithDay(dirName, dayFile.Date.Format("2006-01-02"))

	records, warnings, err := dayFile.Load()
	if err != nil {
		return nil, err
	}
	// Day files are written chronologically, but nothing guarantees it.
	archive.SortRecords(records)

	for _, warning := range warnings {
		e.diag.RecordSchemaWarning(dayFile.Path, warning.Timestamp, warning.Keys)
	}
	for _, record := range records {
		e.diag.CountSubtype(record.Subtype)
	}
	log.Debug().Int("records", len(records)).Msg("day loaded")

	day, err := e.renderer.RenderDay(records, dayFile.Date, func(record *archive.MessageRecord, err error) {
		e.diag.RecordSkip(dayFile.Path, record.Timestamp, err)
	})
	if err != nil {
		return nil, err
	}

	day.HTML, err = e.rewriter.Rewrite(ctx, day.HTML, day.Attachments, outDir)
	if err != nil {
		return nil, err
	}
	return day, nil
}

func findChannel(channels []archive.Conversation, name string) (archive.Conversation, bool) {
	for _, ch := range channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return archive.Conversation{}, false
}

func findDM(dms []archive.DM, id string) (archive.DM, bool) {
	for _, dm := range dms {
		if dm.ID == id {
			return dm, true
		}
	}
	return archive.DM{}, false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
