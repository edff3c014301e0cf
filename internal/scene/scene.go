// Package scene stores named light-state snapshots.
package scene

import (
	"database/sql"
	"fmt"

	"github.com/oakmere/lampd/internal/kv"
)

const bucketName = "scenes"

// LightState is the recorded state of a single light within a scene.
type LightState struct {
	On         bool  `json:"on"`
	Brightness uint8 `json:"brightness"`
}

// Scene maps light names to the state they take when the scene is recalled.
type Scene map[string]LightState

// Store persists named scenes in the shared kv bucket.
type Store struct {
	bucket *kv.Bucket
}

// NewStore creates a scene store over the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{bucket: kv.NewBucket(db, bucketName)}
}

// Save persists a scene under name, replacing any previous snapshot.
func (s *Store) Save(name string, sc Scene) error {
	if name == "" {
		return fmt.Errorf("scene name must not be empty")
	}
	if err := s.bucket.Store(name, sc); err != nil {
		return fmt.Errorf("failed to save scene %q: %w", name, err)
	}
	return nil
}

// Lookup fetches a scene by name. The boolean reports whether the scene
// exists; an unknown name is not an error.
func (s *Store) Lookup(name string) (Scene, bool, error) {
	var sc Scene
	found, err := s.bucket.Get(name, &sc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load scene %q: %w", name, err)
	}
	return sc, found, nil
}

// Delete removes a scene, reporting whether it existed.
func (s *Store) Delete(name string) (bool, error) {
	return s.bucket.Delete(name)
}

// Names lists all stored scene names.
func (s *Store) Names() ([]string, error) {
	return s.bucket.Keys()
}
