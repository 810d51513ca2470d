// Package rdbstore mirrors a merged regret table into a RocksDB database,
// keyed by the packed 9-byte information-state key with the 64-byte node
// payload as the value. The mirror gives deployment consumers point lookups
// without parsing the flat strategy file, and scales past tables that no
// longer fit in one process's memory.
package rdbstore

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	rocksdb "github.com/tecbot/gorocksdb"

	cfr "github.com/timpalpant/tossem-cfr"
	"github.com/timpalpant/tossem-cfr/abstraction"
)

// Params are the options for a Store.
type Params struct {
	Path         string
	Options      *rocksdb.Options
	ReadOptions  *rocksdb.ReadOptions
	WriteOptions *rocksdb.WriteOptions
}

// DefaultParams returns default options for a database at the given path.
func DefaultParams(path string) Params {
	options := rocksdb.NewDefaultOptions()
	options.SetCreateIfMissing(true)
	options.SetUseFsync(true)
	return Params{
		Path:         path,
		Options:      options,
		ReadOptions:  rocksdb.NewDefaultReadOptions(),
		WriteOptions: rocksdb.NewDefaultWriteOptions(),
	}
}

// Store is a RocksDB-backed node store.
type Store struct {
	params Params
	db     *rocksdb.DB
}

// New opens (creating if necessary) a Store at params.Path.
func New(params Params) (*Store, error) {
	db, err := rocksdb.OpenDb(params.Options, params.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rocksdb at %s", params.Path)
	}
	return &Store{params: params, db: db}, nil
}

// Close implements io.Closer.
func (s *Store) Close() error {
	s.db.Close()
	s.params.Options.Destroy()
	s.params.ReadOptions.Destroy()
	s.params.WriteOptions.Destroy()
	return nil
}

// PutTable writes every node in the table in a single batch, overwriting
// any previous values for the same keys. Safe to call between training
// rounds; never during traversal.
func (s *Store) PutTable(table cfr.RegretTable) error {
	wb := rocksdb.NewWriteBatch()
	defer wb.Destroy()

	for key, node := range table {
		kb := cfr.EncodeKey(key)
		nb := cfr.EncodeNode(node)
		wb.Put(kb[:], nb[:])
	}

	if err := s.db.Write(s.params.WriteOptions, wb); err != nil {
		return errors.Wrap(err, "writing batch")
	}
	glog.V(1).Infof("mirrored %d nodes to %s", len(table), s.params.Path)
	return nil
}

// Get looks up a single node. The second return is false if the key has
// never been stored.
func (s *Store) Get(key abstraction.InfoKey) (cfr.Node, bool, error) {
	kb := cfr.EncodeKey(key)
	result, err := s.db.Get(s.params.ReadOptions, kb[:])
	if err != nil {
		return cfr.Node{}, false, err
	}
	defer result.Free()

	if len(result.Data()) == 0 {
		return cfr.Node{}, false, nil
	}
	return cfr.DecodeNode(result.Data()), true, nil
}

// Load reads the entire database back into an in-memory table.
func (s *Store) Load() (cfr.RegretTable, error) {
	table := make(cfr.RegretTable)

	it := s.db.NewIterator(s.params.ReadOptions)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		key := it.Key()
		value := it.Value()
		node := cfr.DecodeNode(value.Data())
		table[cfr.DecodeKey(key.Data())] = &node
		key.Free()
		value.Free()
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating store")
	}

	return table, nil
}
