package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// LabelsTable is the table a SQLite source must provide.
const LabelsTable = "labels"

// SQLiteReader provides read access to a labels SQLite database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		// Best effort; a read-only handle may refuse some of these.
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (r *SQLiteReader) Path() string { return r.path }

// LoadLabels reads every label row in rowid order. Rows that fail to scan or
// validate are skipped.
func (r *SQLiteReader) LoadLabels() ([]model.LabelRecord, error) {
	query := `
		SELECT
			id, parent, layer_no, lowest_layer, label,
			min_x, max_x, min_y, max_y
		FROM labels
		ORDER BY rowid
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels in %s: %w", r.path, err)
	}
	defer rows.Close()

	var records []model.LabelRecord
	for rows.Next() {
		var rec model.LabelRecord
		var layerNo sql.NullInt64
		var lowest sql.NullBool
		var label sql.NullString

		err := rows.Scan(
			&rec.ID, &rec.Parent, &layerNo, &lowest, &label,
			&rec.Bounds[0], &rec.Bounds[1], &rec.Bounds[2], &rec.Bounds[3],
		)
		if err != nil {
			continue
		}
		if layerNo.Valid {
			rec.LayerNo = int(layerNo.Int64)
		}
		rec.LowestLayer = lowest.Valid && lowest.Bool
		if label.Valid {
			rec.Label = label.String
		}
		if rec.Validate() != nil {
			continue
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return records, nil
}

// CountLabels returns the number of rows in the labels table.
func (r *SQLiteReader) CountLabels() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM labels").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count labels: %w", err)
	}
	return count, nil
}

// CheckSchema verifies the labels table exists.
func (r *SQLiteReader) CheckSchema() error {
	var name string
	err := r.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", LabelsTable,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("missing %s table in %s", LabelsTable, r.path)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	return nil
}
