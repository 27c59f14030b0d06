// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// key prefixes
const (
	prefixEntry  = 'E'
	prefixExpiry = 'X'
)

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentDBVersion = 0x100

// LevelDBStore - store backed by a LevelDB database
type LevelDBStore struct {
	sync.Mutex
	log        *logger.L
	db         *leveldb.DB
	marshaller *marshal.Marshaller
	prepared   *preparedCache
}

// Open - open or create a database file
func Open(log *logger.L, name string, m *marshal.Marshaller, readOnly bool) (*LevelDBStore, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, err
	}
	return newStore(log, db, m, readOnly)
}

// OpenMemory - database held in memory, for tests and local only caches
func OpenMemory(log *logger.L, m *marshal.Marshaller) (*LevelDBStore, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	return newStore(log, db, m, false)
}

func newStore(log *logger.L, db *leveldb.DB, m *marshal.Marshaller, readOnly bool) (*LevelDBStore, error) {
	version, err := getVersion(db)
	if nil != err {
		db.Close()
		return nil, err
	}

	switch {
	case version > currentDBVersion:
		db.Close()
		log.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return nil, fmt.Errorf("database version: %d > current version: %d", version, currentDBVersion)

	case 0 == version && !readOnly:
		// database was empty so tag as current version
		if err := putVersion(db, currentDBVersion); nil != err {
			db.Close()
			return nil, err
		}

	case version < currentDBVersion && readOnly:
		db.Close()
		return nil, fmt.Errorf("database is inconsistent: version: %d  current: %d", version, currentDBVersion)
	}

	log.Infof("database version: %d", currentDBVersion)

	return &LevelDBStore{
		log:        log,
		db:         db,
		marshaller: m,
		prepared:   newPreparedCache(log),
	}, nil
}

// Close - close the database
func (s *LevelDBStore) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	s.prepared.clear()
	err := s.db.Close()
	s.db = nil
	return err
}

// Store - write or overwrite an entry
func (s *LevelDBStore) Store(e *entry.Entry) error {
	batch := new(leveldb.Batch)

	s.Lock()
	defer s.Unlock()

	if err := s.stageStore(batch, e); nil != err {
		return err
	}
	return s.db.Write(batch, nil)
}

// Load - read an entry, expired entries are removed and not returned
func (s *LevelDBStore) Load(key interface{}, now int64) (*entry.Entry, error) {
	k, err := s.entryKey(key)
	if nil != err {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil, fault.ErrNotInitialised
	}

	e, err := s.get(k)
	if nil != err || nil == e {
		return nil, err
	}
	if e.IsExpired(now) {
		batch := new(leveldb.Batch)
		s.stageDelete(batch, k, e)
		return nil, s.db.Write(batch, nil)
	}
	return e, nil
}

// ContainsKey - true if an unexpired entry is present
func (s *LevelDBStore) ContainsKey(key interface{}, now int64) (bool, error) {
	e, err := s.Load(key, now)
	return nil != e, err
}

// Remove - delete an entry, reports whether it existed
func (s *LevelDBStore) Remove(key interface{}) (bool, error) {
	k, err := s.entryKey(key)
	if nil != err {
		return false, err
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return false, fault.ErrNotInitialised
	}

	e, err := s.get(k)
	if nil != err || nil == e {
		return false, err
	}
	batch := new(leveldb.Batch)
	s.stageDelete(batch, k, e)
	return true, s.db.Write(batch, nil)
}

// PurgeExpired - delete every entry expired at now, returns the count
func (s *LevelDBStore) PurgeExpired(now int64) (int, error) {
	limit := make([]byte, 9)
	limit[0] = prefixExpiry
	binary.BigEndian.PutUint64(limit[1:], uint64(now))

	searchRange := ldb_util.Range{
		Start: []byte{prefixExpiry}, // Start of key range, included in the range
		Limit: limit,                // Limit of key range, excluded from the range
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return 0, fault.ErrNotInitialised
	}

	batch := new(leveldb.Batch)
	count := 0

	iter := s.db.NewIterator(&searchRange, nil)
	for iter.Next() {
		indexKey := iter.Key()
		if len(indexKey) < 9 {
			continue
		}
		k := make([]byte, len(indexKey)-8)
		k[0] = prefixEntry
		copy(k[1:], indexKey[9:])

		e, err := s.get(k)
		if nil != err {
			iter.Release()
			return 0, err
		}
		if nil == e {
			// stale index
			batch.Delete(append([]byte{}, indexKey...))
			continue
		}
		if e.IsExpired(now) {
			s.stageDelete(batch, k, e)
			count += 1
		}
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return 0, err
	}

	if 0 != batch.Len() {
		if err := s.db.Write(batch, nil); nil != err {
			return 0, err
		}
	}
	s.log.Debugf("purged: %d expired entries", count)
	return count, nil
}

// Clear - delete all entries
func (s *LevelDBStore) Clear() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}
	batch := new(leveldb.Batch)
	if err := s.stageClear(batch); nil != err {
		return err
	}
	return s.db.Write(batch, nil)
}

// Iterate - call f for every stored entry until it returns false
func (s *LevelDBStore) Iterate(f func(e *entry.Entry) bool) error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte{prefixEntry}), nil)
	defer iter.Release()

	for iter.Next() {
		e, err := s.decode(iter.Value())
		if nil != err {
			return err
		}
		if !f(e) {
			break
		}
	}
	return iter.Error()
}

// Prepare - stage a transaction's modifications
func (s *LevelDBStore) Prepare(txKey string, modifications []Modification) error {
	batch := new(leveldb.Batch)

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}

	for _, m := range modifications {
		var err error
		switch m.Operation {
		case OpStore:
			err = s.stageStore(batch, m.Entry)
		case OpRemove:
			var k []byte
			k, err = s.entryKey(m.Key)
			if nil == err {
				var e *entry.Entry
				e, err = s.get(k)
				if nil == err && nil != e {
					s.stageDelete(batch, k, e)
				}
			}
		case OpClear:
			err = s.stageClear(batch)
		default:
			err = fault.ErrInvalidCommand
		}
		if nil != err {
			return err
		}
	}
	s.prepared.put(txKey, batch)
	return nil
}

// Commit - write a prepared transaction
func (s *LevelDBStore) Commit(txKey string) error {
	batch, ok := s.prepared.take(txKey)
	if !ok {
		return fault.ErrTransactionNotFound
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrNotInitialised
	}
	return s.db.Write(batch, nil)
}

// Rollback - drop a prepared transaction
func (s *LevelDBStore) Rollback(txKey string) error {
	s.prepared.take(txKey)
	return nil
}

// internal routines, must be called with the lock held

func (s *LevelDBStore) stageStore(batch *leveldb.Batch, e *entry.Entry) error {
	if nil == s.db {
		return fault.ErrNotInitialised
	}
	k, err := s.entryKey(e.Key)
	if nil != err {
		return err
	}
	data, err := s.marshaller.Marshal(e)
	if nil != err {
		return err
	}

	old, err := s.get(k)
	if nil != err {
		return err
	}
	if nil != old {
		if t := old.ExpiryTime(); t >= 0 {
			batch.Delete(expiryKey(t, k))
		}
	}

	batch.Put(k, data)
	if t := e.ExpiryTime(); t >= 0 {
		batch.Put(expiryKey(t, k), []byte{})
	}
	return nil
}

func (s *LevelDBStore) stageDelete(batch *leveldb.Batch, k []byte, e *entry.Entry) {
	batch.Delete(k)
	if t := e.ExpiryTime(); t >= 0 {
		batch.Delete(expiryKey(t, k))
	}
}

func (s *LevelDBStore) stageClear(batch *leveldb.Batch) error {
	for _, prefix := range []byte{prefixEntry, prefixExpiry} {
		iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte{prefix}), nil)
		for iter.Next() {
			batch.Delete(append([]byte{}, iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return err
		}
	}
	return nil
}

func (s *LevelDBStore) get(k []byte) (*entry.Entry, error) {
	data, err := s.db.Get(k, nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, err
	}
	return s.decode(data)
}

func (s *LevelDBStore) decode(data []byte) (*entry.Entry, error) {
	v, err := s.marshaller.Unmarshal(data)
	if nil != err {
		return nil, err
	}
	e, ok := v.(*entry.Entry)
	if !ok {
		return nil, fault.ErrMalformedStream
	}
	return e, nil
}

// prefix ++ marshalled key
func (s *LevelDBStore) entryKey(key interface{}) ([]byte, error) {
	if nil == key {
		return nil, fault.ErrInvalidKey
	}
	encoder := s.marshaller.NewEncoder()
	_ = encoder.WriteByte(prefixEntry)
	if err := encoder.WriteObject(key); nil != err {
		return nil, err
	}
	return encoder.Bytes(), nil
}

// X ++ expiry ++ key without its prefix
func expiryKey(expiry int64, k []byte) []byte {
	result := make([]byte, 9, 9+len(k)-1)
	result[0] = prefixExpiry
	binary.BigEndian.PutUint64(result[1:], uint64(expiry))
	return append(result, k[1:]...)
}

// return the version, 0 for an empty database
func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}
	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))
	return db.Put(versionKey, currentVersion, nil)
}
