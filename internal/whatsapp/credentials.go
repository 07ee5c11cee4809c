package whatsapp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const sessionDBName = "session.db"

// FileCredentialStore keeps the device keys in a SQLite file inside Dir
type FileCredentialStore struct {
	Dir string
}

// NewFileCredentialStore creates a store rooted at dir
func NewFileCredentialStore(dir string) *FileCredentialStore {
	if dir == "" {
		dir = ".wa_session"
	}
	return &FileCredentialStore{Dir: dir}
}

// Location returns the directory holding the credential files
func (s *FileCredentialStore) Location() string {
	return s.Dir
}

// Ensure creates the directory if it does not exist yet
func (s *FileCredentialStore) Ensure() error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return errors.Wrap(err, "create credential dir")
	}
	return nil
}

// DSN is the sqlite3 address used by the whatsmeow store
func (s *FileCredentialStore) DSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.Join(s.Dir, sessionDBName))
}

// Erase removes every credential file. A missing directory is not an error.
func (s *FileCredentialStore) Erase() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return errors.Wrap(err, "erase credential store")
	}
	return nil
}
