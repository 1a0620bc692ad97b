/*
Package txstore implements a persistent journal of submitted transactions
backed by BoltDB. Every transaction sent by an actor with a journal is
recorded there, receipts are added once transactions are resolved, so that
their status can be checked later even after restarts.
*/
package txstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"go.etcd.io/bbolt"
)

// Bucket is the BoltDB bucket used to store transaction records.
var Bucket = []byte("txs")

// ErrNotFound is returned for unknown transactions.
var ErrNotFound = errors.New("transaction not found")

// Store is a BoltDB-backed transaction journal. It implements actor.Journal.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Record is a journal entry.
type Record struct {
	// Seq is the order number of the record in the journal.
	Seq       uint64           `json:"seq"`
	Submitted waiter.Submitted `json:"submitted"`
	Time      time.Time        `json:"time"`
	// Receipt is nil until the transaction is resolved.
	Receipt *Receipt `json:"receipt,omitempty"`
}

// Receipt is the stored outcome of the transaction.
type Receipt struct {
	BlockHash   util.H256 `json:"blockhash"`
	BlockNumber uint32    `json:"blocknumber"`
	TxIndex     uint32    `json:"txindex"`
	Finalized   bool      `json:"finalized"`
	Success     bool      `json:"success"`
	// Error is the dispatch error description of failed transactions.
	Error string `json:"error,omitempty"`
}

// Open opens (creating if needed) the journal at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create dir for the journal: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return fmt.Errorf("could not create root bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put records the submitted transaction. Repeated submissions of the same
// transaction don't change the existing record.
func (s *Store) Put(sub *waiter.Submitted) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b.Get(sub.Hash[:]) != nil {
			return nil
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return putRecord(b, &Record{Seq: seq, Submitted: *sub, Time: s.now().UTC()})
	})
}

// Get returns the record of the transaction with the given hash.
func (s *Store) Get(h util.H256) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = getRecord(tx.Bucket(Bucket), h)
		return err
	})
	return rec, err
}

// SetReceipt stores the receipt of the journalled transaction.
func (s *Store) SetReceipt(r *waiter.Receipt) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		rec, err := getRecord(b, r.TxHash)
		if err != nil {
			return err
		}
		rec.Receipt = &Receipt{
			BlockHash:   r.BlockHash,
			BlockNumber: r.BlockNumber,
			TxIndex:     r.TxIndex,
			Finalized:   r.Finalized,
			Success:     r.Success(),
		}
		if err := r.Err(); err != nil {
			rec.Receipt.Error = err.Error()
		}
		return putRecord(b, rec)
	})
}

// Delete removes the record of the given transaction.
func (s *Store) Delete(h util.H256) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Delete(h[:])
	})
}

// List returns all records in the order they were added.
func (s *Store) List() ([]Record, error) {
	return s.list(func(*Record) bool { return true })
}

// Pending returns records without receipts in the order they were added.
func (s *Store) Pending() ([]Record, error) {
	return s.list(func(r *Record) bool { return r.Receipt == nil })
}

func (s *Store) list(filter func(*Record) bool) ([]Record, error) {
	var res []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("record %x: %w", k, err)
			}
			if filter(&rec) {
				res = append(res, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

func getRecord(b *bbolt.Bucket, h util.H256) (*Record, error) {
	v := b.Get(h[:])
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	rec := new(Record)
	if err := json.Unmarshal(v, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func putRecord(b *bbolt.Bucket, rec *Record) error {
	v, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put(rec.Submitted.Hash[:], v)
}
