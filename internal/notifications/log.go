// Package notifications resolves recipients for interactions and records
// the resulting deliveries for the external delivery worker to drain.
package notifications

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for the delivery log
var (
	// bucketDeliveries stores pending deliveries keyed by insertion sequence
	bucketDeliveries = []byte("deliveries")

	// bucketDedup marks already-recorded (recipient, type, actor, subject)
	// combinations so repeated federation events don't duplicate deliveries
	bucketDedup = []byte("dedup")
)

// Type classifies the interaction behind a delivery.
type Type string

const (
	TypeLike   Type = "like"
	TypeRepost Type = "repost"
	TypeReply  Type = "reply"
)

// Delivery is one pending notification for one recipient.
type Delivery struct {
	ID          string    `json:"id"`
	RecipientID int64     `json:"recipientId"`
	Type        Type      `json:"type"`
	ActorID     int64     `json:"actorId"`
	PostApID    string    `json:"postApId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Log is the persistent delivery log, backed by BoltDB. Deliveries are
// drained in insertion order; dedup marks outlive draining so a replayed
// event never re-records a delivery.
type Log struct {
	db *bolt.DB
}

// OpenLog creates or opens the delivery log at the given path.
func OpenLog(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create delivery log directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open delivery log: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDeliveries, bucketDedup} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append records a delivery unless an identical one was recorded before.
// Returns true when the delivery was actually written.
func (l *Log) Append(d Delivery) (bool, error) {
	written := false
	err := l.db.Update(func(tx *bolt.Tx) error {
		dedup := tx.Bucket(bucketDedup)
		key := dedupKey(d)
		if dedup.Get(key) != nil {
			return nil
		}

		deliveries := tx.Bucket(bucketDeliveries)
		seq, err := deliveries.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if err := deliveries.Put(itob(seq), data); err != nil {
			return err
		}
		if err := dedup.Put(key, []byte{1}); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("append delivery: %w", err)
	}
	return written, nil
}

// Drain removes and returns up to max pending deliveries in insertion
// order. The external delivery worker calls this.
func (l *Log) Drain(max int) ([]Delivery, error) {
	var drained []Delivery
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeliveries)
		c := b.Cursor()
		var remove [][]byte
		for k, v := c.First(); k != nil && len(drained) < max; k, v = c.Next() {
			var d Delivery
			if err := json.Unmarshal(v, &d); err != nil {
				// A corrupt entry shouldn't wedge the drain loop forever.
				remove = append(remove, append([]byte(nil), k...))
				continue
			}
			drained = append(drained, d)
			remove = append(remove, append([]byte(nil), k...))
		}
		for _, k := range remove {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain deliveries: %w", err)
	}
	return drained, nil
}

// ListPending returns up to max pending deliveries for one recipient, in
// insertion order, without removing them. Backs the viewer-facing
// notification list; the destructive read belongs to Drain.
func (l *Log) ListPending(recipientID int64, max int) ([]Delivery, error) {
	var pending []Delivery
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDeliveries).Cursor()
		for k, v := c.First(); k != nil && len(pending) < max; k, v = c.Next() {
			var d Delivery
			if err := json.Unmarshal(v, &d); err != nil {
				continue
			}
			if d.RecipientID == recipientID {
				pending = append(pending, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	return pending, nil
}

// Pending returns the number of deliveries waiting to be drained.
func (l *Log) Pending() (int, error) {
	var n int
	err := l.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketDeliveries).Stats().KeyN
		return nil
	})
	return n, err
}

func dedupKey(d Delivery) []byte {
	return []byte(fmt.Sprintf("%d|%s|%d|%s", d.RecipientID, d.Type, d.ActorID, d.PostApID))
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
