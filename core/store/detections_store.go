package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"stocwatch/core/utils"
)

type DetectionsStore interface {
	Create(ctx context.Context, party Party, d *Detection) (int64, error)
	Get(ctx context.Context, party Party, id int64) (*Detection, error)
	List(ctx context.Context, party Party, filter DetectionFilter) ([]Detection, error)
	Edit(ctx context.Context, party Party, id int64, fields DetectionFields) error
	Delete(ctx context.Context, party Party, id int64) error

	Count(ctx context.Context, party Party, storeID int64) (int64, error)
	CountByMonth(ctx context.Context, party Party, storeID int64, year int) ([]MonthCount, error)
	CountByLocation(ctx context.Context, party Party, year int) ([]LocationCount, error)

	Latest(ctx context.Context, party Party, storeID int64, limit int) ([]Detection, error)
	LatestCover(ctx context.Context, storeID int64) (*Detection, error)
}

type detectionsStore struct {
	db *sql.DB
}

func NewDetectionsStore(db *sql.DB) DetectionsStore {
	return &detectionsStore{db: db}
}

const detectionColumns = "detection_id, store_id, store_name, store_location, store_contact, date, time, threat_level, detection_type, shared_detection_id"

func (s *detectionsStore) Create(ctx context.Context, party Party, d *Detection) (int64, error) {
	spec, err := specFor(party)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(d.SharedDetectionID) == "" {
		d.SharedDetectionID = uuid.Must(uuid.NewV4()).String()
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s(store_id, store_name, store_location, store_contact, date, time, threat_level, detection_type, shared_detection_id)
		VALUES(?,?,?,?,?,?,?,?,?)`, spec.detectionsTable),
		nullableID(d.StoreID), strings.TrimSpace(d.StoreName), strings.TrimSpace(d.StoreLocation), strings.TrimSpace(d.StoreContact),
		strings.TrimSpace(d.Date), strings.TrimSpace(d.Time), strings.TrimSpace(d.ThreatLevel), strings.TrimSpace(d.DetectionType), d.SharedDetectionID)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	d.ID = id
	return id, nil
}

func (s *detectionsStore) Get(ctx context.Context, party Party, id int64) (*Detection, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s WHERE detection_id=?`, detectionColumns, spec.detectionsTable), id)
	return scanDetection(row)
}

func (s *detectionsStore) List(ctx context.Context, party Party, filter DetectionFilter) ([]Detection, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	clauses, args := buildFilterClauses(spec, filter)
	query := fmt.Sprintf(`SELECT %s FROM %s`, detectionColumns, spec.detectionsTable)
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC, time DESC, detection_id DESC"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetections(rows)
}

// buildFilterClauses translates a DetectionFilter into WHERE fragments with
// bound arguments. Absent criteria contribute nothing; a one-element set
// degenerates to equality through the same IN clause.
func buildFilterClauses(spec partySpec, filter DetectionFilter) ([]string, []any) {
	var clauses []string
	var args []any
	if filter.StoreID > 0 {
		clauses = append(clauses, "store_id=?")
		args = append(args, filter.StoreID)
	}
	if spec.excludeLowThreat {
		clauses = append(clauses, "threat_level != ?")
		args = append(args, "Low")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + term + "%"
		conds := make([]string, 0, len(spec.searchColumns))
		for _, col := range spec.searchColumns {
			conds = append(conds, col+" LIKE ?")
			args = append(args, like)
		}
		clauses = append(clauses, "("+strings.Join(conds, " OR ")+")")
	}
	for _, set := range []struct {
		column string
		values []string
	}{
		{"store_location", filter.Locations},
		{"threat_level", filter.ThreatLevels},
		{"detection_type", filter.Types},
	} {
		values := trimAll(set.values)
		if len(values) == 0 {
			continue
		}
		placeholders := strings.TrimRight(strings.Repeat("?,", len(values)), ",")
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", set.column, placeholders))
		for _, v := range values {
			args = append(args, v)
		}
	}
	return clauses, args
}

// Edit captures the pre-edit values of the four mutable fields, appends them
// to the party's edit history, and applies the update in a single
// transaction so no mutation commits without its trace. A payload identical
// to the stored row is reported as ErrNoChanges and leaves no history entry.
func (s *detectionsStore) Edit(ctx context.Context, party Party, id int64, fields DetectionFields) error {
	spec, err := specFor(party)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	row := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s WHERE detection_id=?`, detectionColumns, spec.detectionsTable), id)
	existing, err := scanDetection(row)
	if err != nil {
		tx.Rollback()
		return err
	}
	if existing == nil {
		tx.Rollback()
		return ErrNotFound
	}
	if fields.equal(existing) {
		tx.Rollback()
		return ErrNoChanges
	}
	dateEdited, timeEdited := utils.SplitTimestamp(utils.NowUTC())
	if err := appendEditTx(ctx, tx, spec, EditEntry{
		DetectionID:   existing.ID,
		Date:          existing.Date,
		Time:          existing.Time,
		ThreatLevel:   existing.ThreatLevel,
		DetectionType: existing.DetectionType,
		DateEdited:    dateEdited,
		TimeEdited:    timeEdited,
	}); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET date=?, time=?, threat_level=?, detection_type=? WHERE detection_id=?`, spec.detectionsTable),
		fields.Date, fields.Time, fields.ThreatLevel, fields.DetectionType, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback()
		return ErrNoChanges
	}
	return tx.Commit()
}

// Delete reads the full record, writes its tombstone, then removes the live
// row in one transaction, so a failed tombstone write leaves the record in
// place and a recoverable trace always exists for every deletion.
func (s *detectionsStore) Delete(ctx context.Context, party Party, id int64) error {
	spec, err := specFor(party)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	row := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s WHERE detection_id=?`, detectionColumns, spec.detectionsTable), id)
	existing, err := scanDetection(row)
	if err != nil {
		tx.Rollback()
		return err
	}
	if existing == nil {
		tx.Rollback()
		return ErrNotFound
	}
	dateDeleted, timeDeleted := utils.SplitTimestamp(utils.NowUTC())
	if err := appendDeletionTx(ctx, tx, spec, DeleteEntry{
		DetectionID:   existing.ID,
		StoreID:       existing.StoreID,
		Date:          existing.Date,
		Time:          existing.Time,
		ThreatLevel:   existing.ThreatLevel,
		DetectionType: existing.DetectionType,
		DateDeleted:   dateDeleted,
		TimeDeleted:   timeDeleted,
	}); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE detection_id=?`, spec.detectionsTable), id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *detectionsStore) Count(ctx context.Context, party Party, storeID int64) (int64, error) {
	spec, err := specFor(party)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, spec.detectionsTable)
	var args []any
	if storeID > 0 {
		query += " WHERE store_id=?"
		args = append(args, storeID)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *detectionsStore) CountByMonth(ctx context.Context, party Party, storeID int64, year int) ([]MonthCount, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT CAST(strftime('%%m', date) AS INTEGER) AS month, COUNT(*) AS cnt
		FROM %s WHERE CAST(strftime('%%Y', date) AS INTEGER)=?`, spec.detectionsTable)
	args := []any{year}
	if storeID > 0 {
		query += " AND store_id=?"
		args = append(args, storeID)
	}
	query += " GROUP BY month ORDER BY month ASC"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		mc.MonthName = monthName(mc.Month)
		res = append(res, mc)
	}
	return res, rows.Err()
}

func (s *detectionsStore) CountByLocation(ctx context.Context, party Party, year int) ([]LocationCount, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT store_location, COUNT(*) AS cnt
		FROM %s WHERE CAST(strftime('%%Y', date) AS INTEGER)=?
		GROUP BY store_location ORDER BY cnt DESC`, spec.detectionsTable), year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []LocationCount
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Name, &lc.Count); err != nil {
			return nil, err
		}
		res = append(res, lc)
	}
	return res, rows.Err()
}

func (s *detectionsStore) Latest(ctx context.Context, party Party, storeID int64, limit int) ([]Detection, error) {
	spec, err := specFor(party)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 2
	}
	query := fmt.Sprintf(`SELECT %s FROM %s`, detectionColumns, spec.detectionsTable)
	var args []any
	if storeID > 0 {
		query += " WHERE store_id=?"
		args = append(args, storeID)
	}
	query += fmt.Sprintf(" ORDER BY date DESC, time DESC, detection_id DESC LIMIT %d", limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetections(rows)
}

func (s *detectionsStore) LatestCover(ctx context.Context, storeID int64) (*Detection, error) {
	spec := partySpecs[PartyStore]
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE store_id=? AND detection_type LIKE ?
		ORDER BY date DESC, time DESC, detection_id DESC LIMIT 1`, detectionColumns, spec.detectionsTable),
		storeID, "%Cover%")
	return scanDetection(row)
}

func specFor(party Party) (partySpec, error) {
	spec, ok := partySpecs[party]
	if !ok {
		return partySpec{}, fmt.Errorf("unknown party %q", party)
	}
	return spec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row *sql.Row) (*Detection, error) {
	d, err := scanDetectionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func scanDetectionRow(row rowScanner) (Detection, error) {
	var d Detection
	var storeID sql.NullInt64
	if err := row.Scan(&d.ID, &storeID, &d.StoreName, &d.StoreLocation, &d.StoreContact,
		&d.Date, &d.Time, &d.ThreatLevel, &d.DetectionType, &d.SharedDetectionID); err != nil {
		return d, err
	}
	if storeID.Valid {
		d.StoreID = &storeID.Int64
	}
	return d, nil
}

func collectDetections(rows *sql.Rows) ([]Detection, error) {
	var res []Detection
	for rows.Next() {
		d, err := scanDetectionRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func trimAll(values []string) []string {
	var out []string
	for _, raw := range values {
		if v := strings.TrimSpace(raw); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

var monthNames = [...]string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
