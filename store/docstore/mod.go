// Package docstore persists serialized object graphs under a name, using a
// key/value database as the substrate and an engine for the conversion. It
// is a convenience layer: a document saved with sharing enabled round-trips
// its shared subgraphs and cycles like any stream does.
package docstore

import (
	"bytes"

	"github.com/objson/objson/serial/engine"
	"github.com/objson/objson/store/kv"
	"golang.org/x/xerrors"
)

var bucket = []byte("documents")

// Store saves and loads named documents.
type Store struct {
	db  kv.DB
	eng *engine.Engine
}

// New returns a store using the database and the engine. It makes sure the
// document bucket exists.
func New(db kv.DB, eng *engine.Engine) (*Store, error) {
	err := db.Update(bucket, func(kv.Bucket) error {
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't create the document bucket: %v", err)
	}

	return &Store{db: db, eng: eng}, nil
}

// Save serializes the value and stores it under the name, overwriting a
// previous document with the same name.
func (s *Store) Save(name string, v interface{}) error {
	buf := new(bytes.Buffer)

	err := s.eng.WriteNamed(v, buf, name, 1)
	if err != nil {
		return xerrors.Errorf("couldn't serialize document: %v", err)
	}

	err = s.db.Update(bucket, func(b kv.Bucket) error {
		return b.Set([]byte(name), buf.Bytes())
	})
	if err != nil {
		return xerrors.Errorf("couldn't store document '%s': %v", name, err)
	}

	return nil
}

// Load reads the document stored under the name into the target.
func (s *Store) Load(name string, target interface{}) error {
	var data []byte

	err := s.db.View(bucket, func(b kv.Bucket) error {
		value := b.Get([]byte(name))
		if value != nil {
			data = append([]byte{}, value...)
		}

		return nil
	})
	if err != nil {
		return xerrors.Errorf("couldn't read document '%s': %v", name, err)
	}

	if data == nil {
		return xerrors.Errorf("document '%s' not found", name)
	}

	err = s.eng.ReadNamed(target, bytes.NewReader(data), name, 1)
	if err != nil {
		return xerrors.Errorf("couldn't deserialize document: %v", err)
	}

	return nil
}

// List returns the names of the stored documents in lexical order.
func (s *Store) List() ([]string, error) {
	var names []string

	err := s.db.View(bucket, func(b kv.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't list documents: %v", err)
	}

	return names, nil
}

// Delete removes the document stored under the name. Deleting a missing
// document is not an error.
func (s *Store) Delete(name string) error {
	err := s.db.Update(bucket, func(b kv.Bucket) error {
		return b.Delete([]byte(name))
	})
	if err != nil {
		return xerrors.Errorf("couldn't delete document '%s': %v", name, err)
	}

	return nil
}
