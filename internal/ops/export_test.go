package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/ranking"
)

func readExport(t *testing.T, path string) (ExportHeader, []map[string]any) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		t.Fatal("export file is empty")
	}
	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("parse header: %v", err)
	}

	var records []map[string]any
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("parse record: %v", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return header, records
}

func TestExportEvents_HappyPath(t *testing.T) {
	d, _ := newTestDeps(t, &fakeSource{events: sampleEvents(time.Now())})

	out, err := ExportEvents(context.Background(), d, ExportEventsInput{Path: "week.jsonl", FutureDays: 7})
	if err != nil {
		t.Fatalf("ExportEvents failed: %v", err)
	}
	if want := filepath.Join(d.ExportsDir, "week.jsonl"); out.Path != want {
		t.Errorf("Path = %q, want %q", out.Path, want)
	}
	if out.Count != 3 {
		t.Errorf("Count = %d, want 3", out.Count)
	}

	header, records := readExport(t, out.Path)
	if !header.EventrankExport {
		t.Error("header should carry _eventrank_export")
	}
	if header.SchemaVersion != ExportSchemaVersion {
		t.Errorf("SchemaVersion = %q", header.SchemaVersion)
	}
	if header.FutureDays != 7 {
		t.Errorf("FutureDays = %d, want 7", header.FutureDays)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0]["id"] != "ev-music" {
		t.Errorf("first record id = %v, want feed order", records[0]["id"])
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(d.ExportsDir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestExportEvents_DefaultPath(t *testing.T) {
	d, _ := newTestDeps(t, &fakeSource{})

	out, err := ExportEvents(context.Background(), d, ExportEventsInput{})
	if err != nil {
		t.Fatalf("ExportEvents failed: %v", err)
	}
	if filepath.Dir(out.Path) != d.ExportsDir {
		t.Errorf("default path %q not in exports dir", out.Path)
	}
	if !strings.HasPrefix(filepath.Base(out.Path), "events-") || filepath.Ext(out.Path) != ExportExt {
		t.Errorf("unexpected default name %q", filepath.Base(out.Path))
	}
	if out.Count != 0 {
		t.Errorf("Count = %d, want 0", out.Count)
	}
}

func TestExportEvents_Ranked(t *testing.T) {
	d, _ := newTestDeps(t, &fakeSource{events: sampleEvents(time.Now())})
	ctx := context.Background()

	if _, err := ExportEvents(ctx, d, ExportEventsInput{Path: "ranked.jsonl", Ranked: true}); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("ranked export without profile: err = %v, want NOT_FOUND", err)
	}

	if _, err := SaveProfile(ctx, d, profile.Profile{Year: "Sophomore", Major: "Computer Science", Interests: []string{"tech"}}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	out, err := ExportEvents(ctx, d, ExportEventsInput{Path: "ranked.jsonl", Ranked: true})
	if err != nil {
		t.Fatalf("ExportEvents failed: %v", err)
	}
	if out.Mode != ranking.ModeLocal {
		t.Errorf("Mode = %q, want local", out.Mode)
	}

	header, records := readExport(t, out.Path)
	if header.Mode != ranking.ModeLocal {
		t.Errorf("header Mode = %q, want local", header.Mode)
	}
	if records[0]["id"] != "ev-cs" {
		t.Errorf("top record = %v, want ev-cs", records[0]["id"])
	}
	if _, ok := records[0]["relevanceScore"]; !ok {
		t.Error("ranked records should carry relevanceScore")
	}
}

func TestExportEvents_RejectsOutsidePath(t *testing.T) {
	d, _ := newTestDeps(t, &fakeSource{})

	_, err := ExportEvents(context.Background(), d, ExportEventsInput{Path: filepath.Join(t.TempDir(), "x.jsonl")})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestExportEvents_PreservesExistingOnFeedError(t *testing.T) {
	src := &fakeSource{events: sampleEvents(time.Now())}
	d, _ := newTestDeps(t, src)
	ctx := context.Background()

	out, err := ExportEvents(ctx, d, ExportEventsInput{Path: "keep.jsonl"})
	if err != nil {
		t.Fatalf("ExportEvents failed: %v", err)
	}
	before, _ := os.ReadFile(out.Path)

	src.err = errors.NewUpstreamFetch("feed", 502, nil)
	if _, err := ExportEvents(ctx, d, ExportEventsInput{Path: "keep.jsonl"}); !errors.Is(err, errors.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want UPSTREAM_FETCH", err)
	}
	after, _ := os.ReadFile(out.Path)
	if string(before) != string(after) {
		t.Error("existing export should be untouched after a failed run")
	}
}

func TestExportEvents_NoExportsDir(t *testing.T) {
	d := &Deps{Feed: &fakeSource{}}
	if _, err := ExportEvents(context.Background(), d, ExportEventsInput{}); !errors.Is(err, errors.ErrConfig) {
		t.Errorf("err = %v, want CONFIG_ERROR", err)
	}
}
