package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"stocwatch/config"
	"stocwatch/core/utils"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "stocwatch.db")}
	logger := utils.NewLogger()
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func seedDetection(t *testing.T, s DetectionsStore, party Party, d Detection) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), party, &d)
	if err != nil {
		t.Fatalf("seed detection: %v", err)
	}
	return id
}

func int64ptr(v int64) *int64 { return &v }

func TestListNoFiltersReturnsEverything(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	for _, d := range []Detection{
		{StoreName: "Alpha", StoreLocation: "North", Date: "2024-03-01", Time: "10:00:00", ThreatLevel: "Low", DetectionType: "Lifting"},
		{StoreName: "Beta", StoreLocation: "South", Date: "2024-03-02", Time: "11:00:00", ThreatLevel: "Medium", DetectionType: "Cover"},
		{StoreName: "Gamma", StoreLocation: "North", Date: "2024-03-03", Time: "12:00:00", ThreatLevel: "High", DetectionType: "Cover"},
	} {
		seedDetection(t, s, PartySTOC, d)
	}

	items, err := s.List(ctx, PartySTOC, DetectionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 records, got %d", len(items))
	}
	// newest first
	if items[0].Date != "2024-03-03" || items[2].Date != "2024-03-01" {
		t.Fatalf("unexpected order: %s .. %s", items[0].Date, items[2].Date)
	}
}

func TestListFiltersCompose(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "North", Date: "2024-03-01", Time: "10:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "South", Date: "2024-03-02", Time: "10:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "North", Date: "2024-03-03", Time: "10:00:00", ThreatLevel: "Low", DetectionType: "Cover"})

	items, err := s.List(ctx, PartySTOC, DetectionFilter{
		Locations:    []string{"North"},
		ThreatLevels: []string{"High"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 record, got %d", len(items))
	}
	if items[0].StoreLocation != "North" || items[0].ThreatLevel != "High" {
		t.Fatalf("record does not satisfy all criteria: %+v", items[0])
	}
}

func TestListThreatLevelSetFilter(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	seedDetection(t, s, PartySTOC, Detection{Date: "2024-01-01", Time: "09:00:00", ThreatLevel: "Low", DetectionType: "Lifting"})
	seedDetection(t, s, PartySTOC, Detection{Date: "2024-01-02", Time: "09:00:00", ThreatLevel: "Medium", DetectionType: "Lifting"})
	seedDetection(t, s, PartySTOC, Detection{Date: "2024-01-03", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Lifting"})

	items, err := s.List(ctx, PartySTOC, DetectionFilter{ThreatLevels: []string{"Medium", "High"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected exactly the Medium and High records, got %d", len(items))
	}
	for _, d := range items {
		if d.ThreatLevel == "Low" {
			t.Fatalf("Low record leaked through the filter")
		}
	}
}

func TestListSingletonSetDegeneratesToEquality(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	seedDetection(t, s, PartySTOC, Detection{Date: "2024-01-01", Time: "09:00:00", ThreatLevel: "Medium", DetectionType: "Lifting"})
	seedDetection(t, s, PartySTOC, Detection{Date: "2024-01-02", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Lifting"})

	items, err := s.List(ctx, PartySTOC, DetectionFilter{ThreatLevels: []string{"High"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ThreatLevel != "High" {
		t.Fatalf("singleton set filter did not behave as equality: %+v", items)
	}
}

func TestStoreListExcludesLowThreat(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(7), Date: "2024-02-01", Time: "09:00:00", ThreatLevel: "Low", DetectionType: "Cover"})
	seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(7), Date: "2024-02-02", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Cover"})

	items, err := s.List(ctx, PartyStore, DetectionFilter{StoreID: 7})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ThreatLevel != "High" {
		t.Fatalf("Low threat rows must never surface on the store read path: %+v", items)
	}
}

func TestEditNotFoundProducesNoAuditEntry(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	hs := NewHistoryStore(db)
	ctx := context.Background()

	err := s.Edit(ctx, PartyStore, 12345, DetectionFields{Date: "2024-01-01", Time: "10:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	edits, err := hs.ListEdits(ctx, PartyStore)
	if err != nil {
		t.Fatalf("list edits: %v", err)
	}
	if len(edits) != 0 {
		t.Fatalf("edit history must stay empty after a not-found edit, got %d entries", len(edits))
	}
}

func TestEditNoChangesProducesNoAuditEntry(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	hs := NewHistoryStore(db)
	ctx := context.Background()

	id := seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(3), Date: "2024-01-01", Time: "10:00:00", ThreatLevel: "High", DetectionType: "Cover"})

	err := s.Edit(ctx, PartyStore, id, DetectionFields{Date: "2024-01-01", Time: "10:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	if err != ErrNoChanges {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	edits, _ := hs.ListEdits(ctx, PartyStore)
	if len(edits) != 0 {
		t.Fatalf("no-op edit must not append history, got %d entries", len(edits))
	}
}

func TestEditSnapshotsPreEditValues(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	hs := NewHistoryStore(db)
	ctx := context.Background()

	id := seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(9), Date: "2024-01-01", Time: "10:00:00", ThreatLevel: "Medium", DetectionType: "Lifting"})

	if err := s.Edit(ctx, PartyStore, id, DetectionFields{Date: "2024-02-02", Time: "11:30:00", ThreatLevel: "High", DetectionType: "Cover"}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	d, err := s.Get(ctx, PartyStore, id)
	if err != nil || d == nil {
		t.Fatalf("get after edit: %v %v", d, err)
	}
	if d.Date != "2024-02-02" || d.ThreatLevel != "High" {
		t.Fatalf("edit not applied: %+v", d)
	}

	edits, err := hs.ListEdits(ctx, PartyStore)
	if err != nil {
		t.Fatalf("list edits: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(edits))
	}
	e := edits[0]
	if e.DetectionID != id {
		t.Fatalf("audit entry references %d, want %d", e.DetectionID, id)
	}
	if e.Date != "2024-01-01" || e.Time != "10:00:00" || e.ThreatLevel != "Medium" || e.DetectionType != "Lifting" {
		t.Fatalf("audit entry must carry the pre-edit values, got %+v", e)
	}
	if e.DateEdited == "" || e.TimeEdited == "" {
		t.Fatalf("audit entry missing its own timestamp: %+v", e)
	}
}

func TestDeleteWritesTombstoneAndRemovesRecord(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	hs := NewHistoryStore(db)
	ctx := context.Background()

	id := seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(7), Date: "2024-04-04", Time: "15:45:00", ThreatLevel: "Low", DetectionType: "Cover"})

	if err := s.Delete(ctx, PartyStore, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	d, err := s.Get(ctx, PartyStore, id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if d != nil {
		t.Fatalf("record still live after delete: %+v", d)
	}

	tombstones, err := hs.ListDeletions(ctx, PartyStore)
	if err != nil {
		t.Fatalf("list deletions: %v", err)
	}
	if len(tombstones) != 1 {
		t.Fatalf("expected exactly one tombstone, got %d", len(tombstones))
	}
	ts := tombstones[0]
	if ts.DetectionID != id || ts.StoreID == nil || *ts.StoreID != 7 {
		t.Fatalf("tombstone does not reference the deleted record: %+v", ts)
	}
	if ts.Date != "2024-04-04" || ts.Time != "15:45:00" || ts.ThreatLevel != "Low" || ts.DetectionType != "Cover" {
		t.Fatalf("tombstone fields differ from the record's pre-deletion state: %+v", ts)
	}
	if ts.DateDeleted == "" || ts.TimeDeleted == "" {
		t.Fatalf("tombstone missing deletion timestamp: %+v", ts)
	}
}

func TestDeleteNotFoundProducesNoTombstone(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	hs := NewHistoryStore(db)
	ctx := context.Background()

	if err := s.Delete(ctx, PartySTOC, 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	tombstones, _ := hs.ListDeletions(ctx, PartySTOC)
	if len(tombstones) != 0 {
		t.Fatalf("tombstone log must stay empty, got %d entries", len(tombstones))
	}
}

func TestCreateAssignsSharedDetectionID(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	d := Detection{Date: "2024-05-05", Time: "08:00:00", ThreatLevel: "Medium", DetectionType: "Lifting"}
	if _, err := s.Create(ctx, PartySTOC, &d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.SharedDetectionID == "" {
		t.Fatalf("shared detection id not assigned")
	}

	// a supplied id is kept verbatim
	d2 := Detection{Date: "2024-05-06", Time: "08:00:00", ThreatLevel: "Medium", DetectionType: "Lifting", SharedDetectionID: "ext-1"}
	if _, err := s.Create(ctx, PartySTOC, &d2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if d2.SharedDetectionID != "ext-1" {
		t.Fatalf("supplied shared detection id overwritten: %s", d2.SharedDetectionID)
	}
}

func TestCountsAndAggregates(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	year := utils.NowUTC().Year()
	jan := utils.NowUTC().Format("2006") + "-01-15"
	mar := utils.NowUTC().Format("2006") + "-03-20"
	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "North", Date: jan, Time: "09:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "North", Date: mar, Time: "09:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	seedDetection(t, s, PartySTOC, Detection{StoreLocation: "South", Date: mar, Time: "10:00:00", ThreatLevel: "Low", DetectionType: "Lifting"})

	n, err := s.Count(ctx, PartySTOC, 0)
	if err != nil || n != 3 {
		t.Fatalf("count: %d %v", n, err)
	}

	months, err := s.CountByMonth(ctx, PartySTOC, 0, year)
	if err != nil {
		t.Fatalf("count by month: %v", err)
	}
	if len(months) != 2 || months[0].Month != 1 || months[0].MonthName != "January" || months[1].Count != 2 {
		t.Fatalf("unexpected month buckets: %+v", months)
	}

	locations, err := s.CountByLocation(ctx, PartySTOC, year)
	if err != nil {
		t.Fatalf("count by location: %v", err)
	}
	if len(locations) != 2 || locations[0].Name != "North" || locations[0].Count != 2 {
		t.Fatalf("unexpected location buckets: %+v", locations)
	}
}

func TestLatestCover(t *testing.T) {
	db := newTestDB(t)
	s := NewDetectionsStore(db)
	ctx := context.Background()

	seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(4), Date: "2024-06-01", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Lifting"})
	seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(4), Date: "2024-06-02", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Cover"})
	seedDetection(t, s, PartyStore, Detection{StoreID: int64ptr(5), Date: "2024-06-03", Time: "09:00:00", ThreatLevel: "High", DetectionType: "Cover"})

	d, err := s.LatestCover(ctx, 4)
	if err != nil {
		t.Fatalf("latest cover: %v", err)
	}
	if d == nil || d.Date != "2024-06-02" || d.StoreID == nil || *d.StoreID != 4 {
		t.Fatalf("unexpected cover report: %+v", d)
	}

	none, err := s.LatestCover(ctx, 99)
	if err != nil {
		t.Fatalf("latest cover: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no cover report for unknown store, got %+v", none)
	}
}
