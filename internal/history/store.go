// Package history keeps a local log of endpoint status transitions observed
// while watching deployments, so operators can review how past rollouts
// progressed without trawling CloudWatch.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var bucketTransitions = []byte("transitions")

// Transition is one observed endpoint status change.
type Transition struct {
	Endpoint     string    `json:"endpoint"`
	Status       string    `json:"status"`
	ExecutionArn string    `json:"execution_arn,omitempty"`
	State        string    `json:"state,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Store is a bbolt-backed transition log. Transitions are kept per endpoint
// in observation order.
type Store struct {
	mu  sync.Mutex
	db  *bbolt.DB
	seq uint64
}

// Open opens (or creates) the transition log under dir.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "smops.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTransitions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// makeKey orders transitions by observation time, with a sequence suffix so
// that same-nanosecond writes stay distinct.
func (s *Store) makeKey(at time.Time) []byte {
	s.seq++
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], s.seq)
	return key
}

// Record appends one transition to the endpoint's log.
func (s *Store) Record(t Transition) error {
	if t.Endpoint == "" {
		return fmt.Errorf("transition needs an endpoint name")
	}
	if t.ObservedAt.IsZero() {
		t.ObservedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		parent := tx.Bucket(bucketTransitions)
		bucket, err := parent.CreateBucketIfNotExists([]byte(t.Endpoint))
		if err != nil {
			return err
		}
		value, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return bucket.Put(s.makeKey(t.ObservedAt), value)
	})
}

// List returns the endpoint's transitions, newest first, up to limit
// (0 means no limit).
func (s *Store) List(endpoint string, limit int) ([]Transition, error) {
	var result []Transition
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTransitions).Bucket([]byte(endpoint))
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var t Transition
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("corrupt transition record: %w", err)
			}
			result = append(result, t)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Endpoints lists every endpoint with recorded transitions.
func (s *Store) Endpoints() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTransitions).ForEachBucket(func(name []byte) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
