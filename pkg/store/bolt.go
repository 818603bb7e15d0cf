package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

const (
	measurementsBucket = "measurements"
	displaySetsBucket  = "displaysets"
)

// Bolt is an sr.Sink backed by a bolt database file
type Bolt struct {
	db *bolt.DB
}

var _ sr.Sink = (*Bolt)(nil)

// Open opens or creates the database at path, creating its directory
func Open(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{measurementsBucket, displaySetsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// Close releases the database file
func (b *Bolt) Close() error {
	return b.db.Close()
}

// AddMeasurement persists the registration, replacing an earlier one for the
// same measurement and display set
func (b *Bolt) AddMeasurement(rec *sr.Record, imageID, displaySetInstanceUID string) error {
	if rec == nil || rec.TrackingUniqueIdentifier == "" {
		return sr.ErrMissingTrackingUID
	}
	raw, err := json.Marshal(newRegistration(rec, imageID, displaySetInstanceUID))
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(measurementsBucket))
		return bk.Put([]byte(key(displaySetInstanceUID, rec.TrackingUniqueIdentifier)), raw)
	})
	if err != nil {
		return fmt.Errorf("storing measurement %s: %w", rec.TrackingUniqueIdentifier, err)
	}
	slog.Debug("measurement stored", "trackingUID", rec.TrackingUniqueIdentifier, "imageId", imageID)
	return nil
}

// Registrations lists the registrations of one display set, or of all sets
// when displaySetInstanceUID is empty, in key order
func (b *Bolt) Registrations(displaySetInstanceUID string) ([]Registration, error) {
	var prefix []byte
	if displaySetInstanceUID != "" {
		prefix = []byte(displaySetInstanceUID + "/")
	}
	var out []Registration
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(measurementsBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var reg Registration
			if err := json.Unmarshal(v, &reg); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			out = append(out, reg)
		}
		return nil
	})
	return out, err
}

// SaveDisplaySet persists an extracted report display set
func (b *Bolt) SaveDisplaySet(ds *sr.DisplaySet) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(displaySetsBucket)).Put([]byte(ds.DisplaySetInstanceUID), raw)
	})
}

// LoadDisplaySet reads a display set saved by SaveDisplaySet
func (b *Bolt) LoadDisplaySet(uid string) (*sr.DisplaySet, error) {
	var ds *sr.DisplaySet
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(displaySetsBucket)).Get([]byte(uid))
		if v == nil {
			return fmt.Errorf("display set %s: %w", uid, ErrNotFound)
		}
		ds = &sr.DisplaySet{}
		return json.Unmarshal(v, ds)
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// DisplaySets lists the UIDs of the saved display sets
func (b *Bolt) DisplaySets() ([]string, error) {
	var uids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(displaySetsBucket)).ForEach(func(k, _ []byte) error {
			uids = append(uids, string(k))
			return nil
		})
	})
	return uids, err
}

// DeleteDisplaySet removes a display set and the registrations made on it
func (b *Bolt) DeleteDisplaySet(uid string) error {
	prefix := []byte(uid + "/")
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(displaySetsBucket)).Delete([]byte(uid)); err != nil {
			return err
		}
		c := tx.Bucket([]byte(measurementsBucket)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}
