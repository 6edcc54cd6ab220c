// Package store keeps probe reports in a SQLite database so scans of large
// trees can be queried later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
	"github.com/jpfielding/jxl.go/pkg/report"
)

// ErrNotFound is returned when no report matches a lookup
var ErrNotFound = errors.New("store: report not found")

// Record is one stored report. Source is unique: probing the same source
// again replaces the earlier row.
type Record struct {
	ID          uint   `gorm:"primaryKey"`
	Source      string `gorm:"type:varchar(1024);uniqueIndex;not null"`
	ContentID   string `gorm:"type:varchar(36);index"`
	MD5         string `gorm:"type:varchar(32);index"`
	Size        int
	BytesProbed int
	Framing     string `gorm:"type:varchar(16)"`
	Boxes       string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(16);index"`
	Width       uint32
	Height      uint32
	AlphaBits   uint32
	Detail      string    `gorm:"type:text"`
	Error       string    `gorm:"type:text"`
	ProbedAt    time.Time `gorm:"index"`
}

// Store wraps the database handle
type Store struct {
	db *gorm.DB
}

// Open creates or opens the database at path and migrates the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts reports keyed by source
func (s *Store) Save(ctx context.Context, reports ...report.Report) error {
	if len(reports) == 0 {
		return nil
	}
	now := time.Now().UTC()
	records := make([]Record, 0, len(reports))
	for _, r := range reports {
		rec, err := toRecord(r)
		if err != nil {
			return err
		}
		rec.ProbedAt = now
		records = append(records, rec)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).CreateInBatches(records, 100).Error
}

var updateColumns = []string{
	"content_id", "md5", "size", "bytes_probed", "framing", "boxes",
	"status", "width", "height", "alpha_bits", "detail", "error", "probed_at",
}

// Get returns the report stored for source
func (s *Store) Get(ctx context.Context, source string) (report.Report, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("source = ?", source).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return report.Report{}, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	if err != nil {
		return report.Report{}, err
	}
	return rec.toReport()
}

// FindByContent returns every source whose bytes hash to the content id
func (s *Store) FindByContent(ctx context.Context, contentID string) ([]report.Report, error) {
	var recs []Record
	if err := s.db.WithContext(ctx).Where("content_id = ?", contentID).Order("source").Find(&recs).Error; err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: content %s", ErrNotFound, contentID)
	}
	return toReports(recs)
}

// List returns stored reports ordered by source. An empty status matches
// all rows, "ERROR" matches reports that failed before probing.
func (s *Store) List(ctx context.Context, status string, limit int) ([]report.Report, error) {
	q := s.db.WithContext(ctx).Order("source")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return toReports(recs)
}

// statusError marks rows for reports that carry no stream info
const statusError = "ERROR"

func toRecord(r report.Report) (Record, error) {
	rec := Record{
		Source:      r.Source,
		ContentID:   r.ID,
		MD5:         r.MD5,
		Size:        r.Size,
		BytesProbed: r.BytesProbed,
		Framing:     r.Framing,
		Error:       r.Error,
		Status:      statusError,
	}
	if len(r.Boxes) > 0 {
		b, err := json.Marshal(r.Boxes)
		if err != nil {
			return rec, err
		}
		rec.Boxes = string(b)
	}
	if r.Info != nil {
		rec.Status = r.Info.Status.String()
		rec.Width = r.Info.Width
		rec.Height = r.Info.Height
		rec.AlphaBits = r.Info.AlphaBits
	}
	if r.Detail != nil {
		b, err := json.Marshal(r.Detail)
		if err != nil {
			return rec, err
		}
		rec.Detail = string(b)
	}
	return rec, nil
}

func (rec Record) toReport() (report.Report, error) {
	r := report.Report{
		ID:          rec.ContentID,
		Source:      rec.Source,
		Size:        rec.Size,
		BytesProbed: rec.BytesProbed,
		MD5:         rec.MD5,
		Framing:     rec.Framing,
		Error:       rec.Error,
	}
	if rec.Boxes != "" {
		if err := json.Unmarshal([]byte(rec.Boxes), &r.Boxes); err != nil {
			return r, fmt.Errorf("boxes of %s: %w", rec.Source, err)
		}
	}
	if rec.Status != statusError {
		status, err := jxl.ParseStatus(rec.Status)
		if err != nil {
			return r, fmt.Errorf("status of %s: %w", rec.Source, err)
		}
		r.Info = &jxl.StreamInfo{Status: status, Width: rec.Width, Height: rec.Height, AlphaBits: rec.AlphaBits}
	}
	if rec.Detail != "" {
		var d header.BasicInfo
		if err := json.Unmarshal([]byte(rec.Detail), &d); err != nil {
			return r, fmt.Errorf("detail of %s: %w", rec.Source, err)
		}
		r.Detail = &d
	}
	return r, nil
}

func toReports(recs []Record) ([]report.Report, error) {
	out := make([]report.Report, 0, len(recs))
	for _, rec := range recs {
		r, err := rec.toReport()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
