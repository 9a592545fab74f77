package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stocwatch/core/utils"
)

// HistoryStore exposes the append-only edit and deletion logs. Rows are
// copies of the records they describe; they never reference live rows and
// survive deletion of the source. Edit entries have no retention policy;
// deletion entries are purged by the retention sweeper.
type HistoryStore interface {
	AppendEdit(ctx context.Context, party Party, entry EditEntry) (int64, error)
	AppendDeletion(ctx context.Context, party Party, entry DeleteEntry) (int64, error)

	ListEdits(ctx context.Context, party Party) ([]EditEntry, error)
	ListDeletions(ctx context.Context, party Party) ([]DeleteEntry, error)

	ClearEdits(ctx context.Context, party Party) error
	ClearDeletions(ctx context.Context, party Party) error

	PurgeDeletionsOlderThan(ctx context.Context, party Party, olderThan time.Duration) (int64, error)
}

type historyStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) HistoryStore {
	return &historyStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendEditTx(ctx context.Context, ex execer, spec partySpec, entry EditEntry) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s(detection_id, date, time, threat_level, detection_type, date_edited, time_edited)
		VALUES(?,?,?,?,?,?,?)`, spec.editsTable),
		entry.DetectionID, entry.Date, entry.Time, entry.ThreatLevel, entry.DetectionType, entry.DateEdited, entry.TimeEdited)
	return err
}

func appendDeletionTx(ctx context.Context, ex execer, spec partySpec, entry DeleteEntry) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s(detection_id, store_id, date, time, threat_level, detection_type, date_deleted, time_deleted)
		VALUES(?,?,?,?,?,?,?,?)`, spec.deletionsTable),
		entry.DetectionID, nullableID(entry.StoreID), entry.Date, entry.Time, entry.ThreatLevel, entry.DetectionType, entry.DateDeleted, entry.TimeDeleted)
	return err
}

func (s *historyStore) AppendEdit(ctx context.Context, party Party, entry EditEntry) (int64, error) {
	spec, err := specFor(party)
	if err != nil {
		return 0, err
	}
	if entry.DateEdited == "" || entry.TimeEdited == "" {
		entry.DateEdited, entry.TimeEdited = utils.SplitTimestamp(utils.NowUTC())
	}
	if err := appendEditTx(ctx, s.db, spec, entry); err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT last_insert_rowid()`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *historyStore) AppendDeletion(ctx context.Context, party Party, entry DeleteEntry) (int64, error) {
	spec, err := specFor(party)
	if err != nil {
		return 0, err
	}
	if entry.DateDeleted == "" || entry.TimeDeleted == "" {
		entry.DateDeleted, entry.TimeDeleted = utils.SplitTimestamp(utils.NowUTC())
	}
	if err := appendDeletionTx(ctx, s.db, spec, entry); err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT last_insert_rowid()`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *historyStore) ListEdits(ctx context.Context, party Party) ([]EditEntry, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, detection_id, date, time, threat_level, detection_type, date_edited, time_edited
		FROM %s ORDER BY date_edited DESC, time_edited DESC, id DESC`, spec.editsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []EditEntry
	for rows.Next() {
		var e EditEntry
		if err := rows.Scan(&e.ID, &e.DetectionID, &e.Date, &e.Time, &e.ThreatLevel, &e.DetectionType, &e.DateEdited, &e.TimeEdited); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *historyStore) ListDeletions(ctx context.Context, party Party) ([]DeleteEntry, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, detection_id, store_id, date, time, threat_level, detection_type, date_deleted, time_deleted
		FROM %s ORDER BY date_deleted DESC, time_deleted DESC, id DESC`, spec.deletionsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []DeleteEntry
	for rows.Next() {
		var e DeleteEntry
		var storeID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.DetectionID, &storeID, &e.Date, &e.Time, &e.ThreatLevel, &e.DetectionType, &e.DateDeleted, &e.TimeDeleted); err != nil {
			return nil, err
		}
		if storeID.Valid {
			e.StoreID = &storeID.Int64
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *historyStore) ClearEdits(ctx context.Context, party Party) error {
	spec, err := specFor(party)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, spec.editsTable))
	return err
}

func (s *historyStore) ClearDeletions(ctx context.Context, party Party) error {
	spec, err := specFor(party)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, spec.deletionsTable))
	return err
}

// PurgeDeletionsOlderThan removes tombstones whose deletion timestamp is
// older than the given age. The date/time columns are zero-padded text, so
// lexicographic comparison against the formatted cutoff is chronological.
func (s *historyStore) PurgeDeletionsOlderThan(ctx context.Context, party Party, olderThan time.Duration) (int64, error) {
	spec, err := specFor(party)
	if err != nil {
		return 0, err
	}
	cutoffDate, cutoffTime := utils.SplitTimestamp(utils.NowUTC().Add(-olderThan))
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE date_deleted || ' ' || time_deleted < ?`, spec.deletionsTable),
		cutoffDate+" "+cutoffTime)
	if err != nil {
		return 0, err
	}
	purged, _ := res.RowsAffected()
	return purged, nil
}
