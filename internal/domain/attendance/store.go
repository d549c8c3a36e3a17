package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"dayflow/internal/platform/querier"
)

const recordColumns = "id, user_id, date, check_in, check_out, status, correction_note, created_at, updated_at"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanRecord(row pgx.Row, extra ...any) (Record, error) {
	var rec Record
	var date time.Time
	dest := append([]any{&rec.ID, &rec.UserID, &date, &rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.CorrectionNote, &rec.CreatedAt, &rec.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}
	rec.Date = date.Format(time.DateOnly)
	return rec, nil
}

func (s *Store) Find(ctx context.Context, userID string, date time.Time) (*Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance_records WHERE user_id = $1 AND date = $2", userID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Toggle relies on UNIQUE(user_id, date): concurrent first calls collapse
// into one insert, and the conditional DO UPDATE only fires on an open
// record. xmax = 0 distinguishes a fresh insert from the update path.
func (s *Store) Toggle(ctx context.Context, userID string, date, now time.Time) (Record, bool, error) {
	var inserted bool
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (user_id, date, check_in, status)
    VALUES ($1, $2, $3, 'PRESENT')
    ON CONFLICT (user_id, date) DO UPDATE
      SET check_out = GREATEST(EXCLUDED.check_in, attendance_records.check_in),
          updated_at = now()
      WHERE attendance_records.check_in IS NOT NULL
        AND attendance_records.check_out IS NULL
    RETURNING `+recordColumns+`, (xmax = 0) AS inserted
  `, userID, date, now), &inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, ErrWorkdayAlreadyFinalized
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, inserted, nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance_records WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Correct locks the record, applies the patch and appends the history row
// in one transaction.
func (s *Store) Correct(ctx context.Context, id, correctedBy, note string, apply CorrectFunc) (Record, Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Record{}, Record{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	before, err := scanRecord(tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance_records WHERE id = $1 FOR UPDATE", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, Record{}, err
	}

	next, err := apply(before)
	if err != nil {
		return Record{}, Record{}, err
	}

	after, err := scanRecord(tx.QueryRow(ctx, `
    UPDATE attendance_records
    SET status = $2, check_in = $3, check_out = $4, correction_note = $5, updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		id, next.Status, next.CheckIn, next.CheckOut, next.CorrectionNote))
	if err != nil {
		return Record{}, Record{}, err
	}

	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return Record{}, Record{}, err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return Record{}, Record{}, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO attendance_corrections (record_id, corrected_by, before_json, after_json, note)
    VALUES ($1,$2,$3,$4,$5)
  `, id, correctedBy, beforeJSON, afterJSON, note); err != nil {
		return Record{}, Record{}, fmt.Errorf("insert correction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, Record{}, err
	}
	return before, after, nil
}

func (s *Store) ListCorrections(ctx context.Context, recordID string) ([]Correction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, record_id, corrected_by, before_json, after_json, note, created_at
    FROM attendance_corrections
    WHERE record_id = $1
    ORDER BY created_at DESC, id DESC
  `, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Correction{}
	for rows.Next() {
		var c Correction
		var beforeJSON, afterJSON []byte
		if err := rows.Scan(&c.ID, &c.RecordID, &c.CorrectedBy, &beforeJSON, &afterJSON, &c.Note, &c.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(beforeJSON, &c.Before); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(afterJSON, &c.After); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE user_id = $1
      AND ($2::date IS NULL OR date >= $2::date)
      AND ($3::date IS NULL OR date <= $3::date)
    ORDER BY date DESC
  `, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) ListByDate(ctx context.Context, date time.Time) ([]DailyEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.id, a.user_id, a.date, a.check_in, a.check_out, a.status, a.correction_note, a.created_at, a.updated_at,
           u.name, u.employee_id, u.department
    FROM attendance_records a
    JOIN users u ON u.id = a.user_id
    WHERE a.date = $1
    ORDER BY u.name, u.employee_id
  `, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailyEntry{}
	for rows.Next() {
		var entry DailyEntry
		rec, err := scanRecord(rows, &entry.UserName, &entry.EmployeeID, &entry.Department)
		if err != nil {
			return nil, err
		}
		entry.Record = rec
		out = append(out, entry)
	}
	return out, rows.Err()
}

// MarkAbsences fills in records for active users with nothing on date.
// Existing records are never touched.
func (s *Store) MarkAbsences(ctx context.Context, date time.Time) (int, int, error) {
	rows, err := s.DB.Query(ctx, `
    INSERT INTO attendance_records (user_id, date, status)
    SELECT u.id, $1::date,
           CASE WHEN EXISTS (
             SELECT 1 FROM leave_requests l
             WHERE l.user_id = u.id AND l.status = 'APPROVED'
               AND $1::date BETWEEN l.start_date AND l.end_date
           ) THEN 'LEAVE' ELSE 'ABSENT' END
    FROM users u
    WHERE u.status = 'ACTIVE'
    ON CONFLICT (user_id, date) DO NOTHING
    RETURNING status
  `, date)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var absent, onLeave int
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return 0, 0, err
		}
		if status == StatusLeave {
			onLeave++
		} else {
			absent++
		}
	}
	return absent, onLeave, rows.Err()
}
