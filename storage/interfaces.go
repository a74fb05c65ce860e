package storage

import "immo-harvester/models"

// RecordWriter is the interface any record sink must satisfy.
type RecordWriter interface {
	Write(records []*models.ListingRecord) error
	Close() error
}

// RecordReader reads back the records stored for one run.
type RecordReader interface {
	FetchRun(runID string) ([]*models.ListingRecord, error)
}
