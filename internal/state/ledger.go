// Package state keeps a local ledger of build and check outcomes.
package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Buckets in the ledger database.
const (
	bucketLatest  = "latest"  // document -> most recent record
	bucketHistory = "history" // sequence -> record, append-only
)

// Event kinds.
const (
	EventBuild = "build"
	EventCheck = "check"
	EventDrift = "drift"
)

// Record is one build or check outcome for a document.
type Record struct {
	Run      string    `json:"run,omitempty"` // id of the invocation that wrote it
	Document string    `json:"document"`      // source directory relative to the source root
	Artifact string    `json:"artifact"`
	Event    string    `json:"event"`
	SHA256   string    `json:"sha256,omitempty"`
	At       time.Time `json:"at"`
}

// Store records outcomes and answers history queries.
type Store interface {
	Put(rec Record) error
	Last(document string) (Record, bool, error)
	History(document string, limit int) ([]Record, error)
	Close() error
}

// Ledger is a bbolt-backed implementation of Store.
type Ledger struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketLatest, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &Ledger{db: db}, nil
}

// NewRunID returns a fresh id grouping the records of one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put appends rec to the history and makes it the latest record for its
// document. A zero At is set to the current time.
func (l *Ledger) Put(rec Record) error {
	if rec.Document == "" {
		return fmt.Errorf("record has no document")
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.db.Update(func(tx *bolt.Tx) error {
		hist := tx.Bucket([]byte(bucketHistory))
		seq, err := hist.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		if err := hist.Put(sequenceKey(seq), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketLatest)).Put([]byte(rec.Document), data)
	})
}

// Last returns the most recent record for document.
func (l *Ledger) Last(document string) (Record, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var rec Record
	var found bool
	err := l.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketLatest)).Get([]byte(document))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("read %s: %w", document, err)
	}
	return rec, found, nil
}

// History returns records newest first. An empty document matches every
// document; a limit of zero or less means no limit.
func (l *Ledger) History(document string, limit int) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if document != "" && rec.Document != document {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
