package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
)

const identityFileName = "session-identity.json"

var _ Persister = (*FilePersister)(nil)

// storedIdentity is the on-disk document. Key guards against reading a file
// written for another purpose.
type storedIdentity struct {
	Key      string            `json:"key"`
	SavedAt  time.Time         `json:"savedAt"`
	Identity apimodel.Identity `json:"identity"`
}

// FilePersister stores the identity as JSON in a state directory so that it
// survives restarts of a command line client.
type FilePersister struct {
	path string
}

func NewFilePersister(stateDir string) *FilePersister {
	return &FilePersister{path: filepath.Join(stateDir, identityFileName)}
}

// Path is the file the identity is written to.
func (f *FilePersister) Path() string {
	return f.path
}

func (f *FilePersister) Load(_ context.Context) (*apimodel.Identity, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}

	var doc storedIdentity
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode identity file: %w", err)
	}
	if doc.Key != StorageKey {
		return nil, fmt.Errorf("identity file %s has unexpected key %q", f.path, doc.Key)
	}
	return &doc.Identity, nil
}

func (f *FilePersister) Save(_ context.Context, identity apimodel.Identity) error {
	data, err := json.MarshalIndent(storedIdentity{
		Key:      StorageKey,
		SavedAt:  time.Now().UTC(),
		Identity: identity,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	// Write then rename so a crash never leaves a truncated document.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace identity file: %w", err)
	}
	return nil
}

func (f *FilePersister) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove identity file: %w", err)
	}
	return nil
}
