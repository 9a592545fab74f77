package store

import "errors"

var (
	// ErrNotFound is returned when a record with the requested identifier
	// does not exist in the targeted party table.
	ErrNotFound = errors.New("record not found")
	// ErrNoChanges is returned when an edit payload matches the stored row
	// exactly. Callers use it to detect double submissions; no history entry
	// is written for a no-op edit.
	ErrNoChanges = errors.New("no changes made")
)

// Party selects which reporting side's tables an operation targets: the
// oversight authority (STOC) or an individual retail store. The two sides
// carry structurally identical detection, edit-history and delete-history
// tables; every store method is parameterized by Party instead of being
// duplicated per side.
type Party string

const (
	PartySTOC  Party = "stoc"
	PartyStore Party = "store"
)

func ParseParty(raw string) (Party, bool) {
	switch Party(raw) {
	case PartySTOC:
		return PartySTOC, true
	case PartyStore:
		return PartyStore, true
	}
	return "", false
}

type partySpec struct {
	detectionsTable string
	editsTable      string
	deletionsTable  string
	// columns matched by the free-text search filter
	searchColumns []string
	// the store-side list path never surfaces Low threat rows; this is a
	// fixed business rule on that read path, not a client-supplied filter
	excludeLowThreat bool
}

var partySpecs = map[Party]partySpec{
	PartySTOC: {
		detectionsTable: "stoc_detections",
		editsTable:      "stoc_edit_history",
		deletionsTable:  "stoc_delete_history",
		searchColumns: []string{
			"store_name", "store_location", "store_contact",
			"threat_level", "detection_type", "shared_detection_id",
		},
	},
	PartyStore: {
		detectionsTable: "store_detections",
		editsTable:      "store_edit_history",
		deletionsTable:  "store_delete_history",
		searchColumns: []string{
			"date", "time", "threat_level", "detection_type", "shared_detection_id",
		},
		excludeLowThreat: true,
	},
}

// Detection is one detected incident as reported by a camera/detector.
// StoreID is nil for oversight-originated rows. SharedDetectionID is a soft
// cross-reference linking the STOC-side and store-side copies of the same
// physical event; it is not enforced by a foreign key.
type Detection struct {
	ID                int64  `json:"detection_id"`
	StoreID           *int64 `json:"store_id,omitempty"`
	StoreName         string `json:"store_name,omitempty"`
	StoreLocation     string `json:"store_location,omitempty"`
	StoreContact      string `json:"store_contact,omitempty"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	ThreatLevel       string `json:"threat_level"`
	DetectionType     string `json:"detection_type"`
	SharedDetectionID string `json:"shared_detection_id,omitempty"`
}

// DetectionFields is the mutable subset of a Detection accepted by Edit.
type DetectionFields struct {
	Date          string `json:"date"`
	Time          string `json:"time"`
	ThreatLevel   string `json:"threat_level"`
	DetectionType string `json:"detection_type"`
}

func (f DetectionFields) equal(d *Detection) bool {
	return d != nil &&
		f.Date == d.Date &&
		f.Time == d.Time &&
		f.ThreatLevel == d.ThreatLevel &&
		f.DetectionType == d.DetectionType
}

// EditEntry snapshots the four mutable fields as they existed immediately
// before an edit. Entries are append-only and never expire.
type EditEntry struct {
	ID            int64  `json:"id"`
	DetectionID   int64  `json:"detection_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ThreatLevel   string `json:"threat_level"`
	DetectionType string `json:"detection_type"`
	DateEdited    string `json:"date_edited"`
	TimeEdited    string `json:"time_edited"`
}

// DeleteEntry is the tombstone written when a detection is removed. It is
// the sole remaining copy of the record and is purged by the retention
// sweeper once DateDeleted/TimeDeleted is older than the retention window.
type DeleteEntry struct {
	ID            int64  `json:"id"`
	DetectionID   int64  `json:"detection_id"`
	StoreID       *int64 `json:"store_id,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ThreatLevel   string `json:"threat_level"`
	DetectionType string `json:"detection_type"`
	DateDeleted   string `json:"date_deleted"`
	TimeDeleted   string `json:"time_deleted"`
}

// DetectionFilter composes optional list criteria. Empty criteria are
// no-ops; supplied criteria are ANDed together. Values are always bound as
// parameters, never spliced into SQL text.
type DetectionFilter struct {
	Search       string
	Locations    []string
	ThreatLevels []string
	Types        []string
	// StoreID scopes the result to one owning store when positive.
	StoreID int64
}

type MonthCount struct {
	Month       int    `json:"month_number"`
	MonthName   string `json:"month"`
	Count       int64  `json:"count"`
}

type LocationCount struct {
	Name  string `json:"name"`
	Count int64  `json:"value"`
}
