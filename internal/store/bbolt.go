// ABOUTME: Sequence persistence on bbolt
// ABOUTME: Sequences serialize to a JSON document per id
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/timecode"
)

var sequenceBucket = []byte("sequences")

// SequenceStore persists sequence layouts between sessions.
type SequenceStore struct {
	db *bbolt.DB
}

// sequenceDoc is the stored shape of a sequence. The model type keeps
// its fields unexported, so persistence goes through this DTO.
type sequenceDoc struct {
	ID      string         `json:"id"`
	Rate    timecode.Rate  `json:"rate"`
	Video   [][]model.Clip `json:"video"`
	Audio   [][]model.Clip `json:"audio"`
	SavedAt time.Time      `json:"saved_at"`
}

// Open opens or creates the store at the given path.
func Open(path string) (*SequenceStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open sequence store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sequenceBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sequence bucket: %w", err)
	}

	return &SequenceStore{db: db}, nil
}

// Save writes a sequence layout, replacing any previous version.
func (s *SequenceStore) Save(seq *model.Sequence) error {
	doc := sequenceDoc{
		ID:      seq.ID(),
		Rate:    seq.Rate(),
		SavedAt: time.Now().UTC(),
	}
	for _, t := range seq.VideoTracks() {
		doc.Video = append(doc.Video, t.Clips())
	}
	for _, t := range seq.AudioTracks() {
		doc.Audio = append(doc.Audio, t.Clips())
	}

	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialize sequence %s: %w", seq.ID(), err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sequenceBucket).Put([]byte(seq.ID()), value)
	})
}

// Load reads a sequence by id. Returns false when no such id is stored.
func (s *SequenceStore) Load(id string) (*model.Sequence, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(sequenceBucket).Get([]byte(id)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	var doc sequenceDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("deserialize sequence %s: %w", id, err)
	}

	seq := model.NewSequence(doc.ID, doc.Rate)
	for i, clips := range doc.Video {
		seq.SetVideoTrack(i, clips)
	}
	for i, clips := range doc.Audio {
		seq.SetAudioTrack(i, clips)
	}
	return seq, true, nil
}

// List returns the ids of all stored sequences.
func (s *SequenceStore) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(sequenceBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Delete removes a stored sequence; missing ids are a no-op.
func (s *SequenceStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sequenceBucket).Delete([]byte(id))
	})
}

// Close closes the underlying database.
func (s *SequenceStore) Close() error {
	return s.db.Close()
}
