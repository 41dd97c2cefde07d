// Package reports persists import reports in a local BoltDB file.
package reports

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/repository"
)

const defaultBucket = "import_reports"

// Store wraps BoltDB. Reports are keyed by id; they are small and short-lived,
// so sweeps scan the whole bucket.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

var _ repository.ImportReportRepository = (*Store)(nil)

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(defaultBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(defaultBucket),
	}, nil
}

func (s *Store) Save(ctx context.Context, report *domain.ImportReport) error {
	if s == nil || s.db == nil {
		return unavailable(bolt.ErrDatabaseNotOpen)
	}
	if report == nil || report.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(report.ID), payload)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.ImportReport, error) {
	if s == nil || s.db == nil {
		return nil, unavailable(bolt.ErrDatabaseNotOpen)
	}
	var report *domain.ImportReport
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(id))
		if raw == nil {
			return nil
		}
		report = &domain.ImportReport{}
		return json.Unmarshal(raw, report)
	})
	if err != nil {
		return nil, unavailable(err)
	}
	if report == nil {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

// Cleanup removes reports created before olderThan. Entries that no longer
// decode are removed as well.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, unavailable(bolt.ErrDatabaseNotOpen)
	}
	var expired [][]byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var header struct {
				CreatedAt time.Time `json:"createdAt"`
			}
			if err := json.Unmarshal(v, &header); err == nil && !header.CreatedAt.Before(olderThan) {
				continue
			}
			expired = append(expired, append([]byte(nil), k...))
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

// Size returns the number of stored reports.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func unavailable(err error) error {
	return domain.WrapError(domain.ErrCodeUnavailable, "report store unavailable", err)
}
