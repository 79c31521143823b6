package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// ExportsDirName is the directory under the base directory that export files
// must live in.
const ExportsDirName = "exports"

// ExportSchemaVersion is written in every export header.
const ExportSchemaVersion = "1.0"

// ExportEventsInput contains parameters for the ExportEvents operation.
type ExportEventsInput struct {
	Path       string // optional, default: <exports>/events-<timestamp>.jsonl
	FutureDays int

	// Ranked orders events for the saved profile and writes scored records.
	Ranked bool
}

// ExportEventsOutput contains the result of the ExportEvents operation.
type ExportEventsOutput struct {
	Path       string       `json:"path"`
	Count      int          `json:"count"`
	Mode       ranking.Mode `json:"mode,omitempty"`
	ExportedAt int64        `json:"exported_at"`
}

// ExportHeader is the first line of an export file.
type ExportHeader struct {
	EventrankExport bool         `json:"_eventrank_export"`
	SchemaVersion   string       `json:"schema_version"`
	ExportedAt      int64        `json:"exported_at"`
	FutureDays      int          `json:"future_days"`
	Mode            ranking.Mode `json:"mode,omitempty"`
}

// ExportEvents writes upcoming events to a JSONL file in the exports
// directory: one header line, then one event per line. The file is written to
// a temp name and renamed into place, so an existing export survives a failed
// run.
func ExportEvents(ctx context.Context, d *Deps, input ExportEventsInput) (*ExportEventsOutput, error) {
	if d.ExportsDir == "" {
		return nil, errors.NewConfig("exports directory")
	}
	days, err := d.futureDays(input.FutureDays)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(d.ExportsDir, "events-"+now.Format("2006-01-02T150405")+ExportExt)
	} else if !filepath.IsAbs(exportPath) && filepath.Dir(exportPath) == "." {
		exportPath = filepath.Join(d.ExportsDir, exportPath)
	}

	if err := os.MkdirAll(d.ExportsDir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create exports directory: %w", err))
	}
	if err := ValidateExportPath(exportPath, d.ExportsDir); err != nil {
		return nil, err
	}

	header := ExportHeader{
		EventrankExport: true,
		SchemaVersion:   ExportSchemaVersion,
		ExportedAt:      now.Unix(),
		FutureDays:      days,
	}

	var records []any
	if input.Ranked {
		p, ok, err := profile.Load(ctx, d.DB)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewNotFound("saved profile")
		}
		out, err := RankEvents(ctx, d, RankEventsInput{FutureDays: days, Profile: p})
		if err != nil {
			return nil, err
		}
		header.Mode = out.Mode
		for _, s := range out.Events {
			records = append(records, s)
		}
	} else {
		events, err := d.Feed.Events(ctx, days)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			records = append(records, ev)
		}
	}

	if err := writeJSONL(ctx, exportPath, header, records); err != nil {
		return nil, err
	}

	d.logger().Info("exported events",
		zap.String("path", exportPath),
		zap.Int("count", len(records)),
	)
	return &ExportEventsOutput{
		Path:       exportPath,
		Count:      len(records),
		Mode:       header.Mode,
		ExportedAt: header.ExportedAt,
	}, nil
}

// writeJSONL writes header and records to path via a temp file and rename.
func writeJSONL(ctx context.Context, path string, header any, records []any) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := writeLine(file, header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return errors.NewInternal(err)
		}
		if err := writeLine(file, rec); err != nil {
			return err
		}
	}

	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

func writeLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
