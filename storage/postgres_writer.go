package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// PostgresWriter persists listing records to PostgreSQL. Every schema column
// is stored as JSONB so strings, integers and booleans keep their type.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations, and returns a writer that tags every
// row with runID.
func NewPostgresWriter(ctx context.Context, dsn, runID string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   2 * time.Second,
		Multiplier:  1,
		Logger:      logger,
	}
	if err := retry.Do(ctx, "postgres ping", func() error {
		return utils.Retryable(db.PingContext(ctx))
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	var cols strings.Builder
	for _, c := range models.Columns() {
		fmt.Fprintf(&cols, "\t\t\t%s JSONB,\n", c)
	}

	_, err := pw.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			run_id      UUID         NOT NULL,
			url         TEXT         UNIQUE NOT NULL,
%s			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_run_id        ON listings(run_id);
		CREATE INDEX IF NOT EXISTS idx_listings_property_type ON listings(property_type);
		CREATE INDEX IF NOT EXISTS idx_listings_locality      ON listings(locality);
	`, cols.String()))
	return err
}

// Write batch-inserts records. A URL already stored by an earlier run is
// left untouched.
func (pw *PostgresWriter) Write(records []*models.ListingRecord) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.ListingRecord) error {
	query, args, err := buildInsert(pw.runID, batch)
	if err != nil {
		return err
	}
	if _, err := pw.db.Exec(query, args...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// buildInsert renders one multi-row INSERT for batch.
func buildInsert(runID string, batch []*models.ListingRecord) (string, []interface{}, error) {
	columns := models.Columns()
	perRow := len(columns) + 2

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*perRow)

	for idx, r := range batch {
		base := idx * perRow
		placeholders := make([]string, perRow)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs, runID, r.SourceURL)
		for _, v := range r.Values() {
			arg, err := encodeValue(v)
			if err != nil {
				return "", nil, fmt.Errorf("postgres: encode %s: %w", r.SourceURL, err)
			}
			valueArgs = append(valueArgs, arg)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (run_id, url, %s)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(columns, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs, nil
}

// encodeValue returns nil for null values so the column is SQL NULL, and the
// JSON text of the value otherwise.
func encodeValue(v models.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeValue is the inverse of encodeValue.
func decodeValue(raw sql.NullString) (models.Value, error) {
	if !raw.Valid {
		return models.NullValue(), nil
	}

	dec := json.NewDecoder(strings.NewReader(raw.String))
	dec.UseNumber()
	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return models.Value{}, err
	}

	switch t := x.(type) {
	case nil:
		return models.NullValue(), nil
	case string:
		return models.StringValue(t), nil
	case bool:
		return models.BoolValue(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return models.Value{}, fmt.Errorf("non-integer number %q", t.String())
		}
		return models.IntValue(n), nil
	default:
		return models.Value{}, fmt.Errorf("unexpected JSON value %T", x)
	}
}

// Close closes the database handle.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchRun retrieves the records stored by runID, used by the insight service.
func (pw *PostgresWriter) FetchRun(runID string) ([]*models.ListingRecord, error) {
	columns := models.Columns()
	rows, err := pw.db.Query(fmt.Sprintf(`
		SELECT url, %s
		FROM listings
		WHERE run_id = $1
		ORDER BY id
	`, strings.Join(columns, ", ")), runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run: %w", err)
	}
	defer rows.Close()

	var records []*models.ListingRecord
	raw := make([]sql.NullString, len(columns))
	dest := make([]interface{}, 0, len(columns)+1)

	for rows.Next() {
		var url string
		dest = append(dest[:0], &url)
		for i := range raw {
			dest = append(dest, &raw[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		r := models.NewListingRecord(url)
		for i, c := range columns {
			v, err := decodeValue(raw[i])
			if err != nil {
				return nil, fmt.Errorf("postgres: decode %s.%s: %w", url, c, err)
			}
			r.Set(c, v)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
