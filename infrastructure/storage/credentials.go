package storage

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"relay-chat/domain"

	"github.com/tidwall/jsonc"
)

const DefaultCredentialsPath = "data/config.json"

// CredentialFile keeps the relay credentials in a small JSON document.
// Comments and trailing commas are tolerated, so the file can be annotated by hand.
type CredentialFile struct {
	path string
	log  *slog.Logger
}

func NewCredentialFile(path string, log *slog.Logger) *CredentialFile {
	if path == "" {
		path = DefaultCredentialsPath
	}
	return &CredentialFile{path: path, log: log}
}

func (f *CredentialFile) Path() string {
	return f.path
}

// Init creates the parent directory and a file with empty credentials.
// An existing file is left untouched.
func (f *CredentialFile) Init() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(f.path), err)
	}
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !goerrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", f.path, err)
	}

	data, err := json.MarshalIndent(domain.Credentials{}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	f.log.Info("Created credentials file", "path", f.path)
	return nil
}

// Load reads the credentials. A missing or malformed file yields empty
// credentials together with the error, so callers can carry on without them.
func (f *CredentialFile) Load() (domain.Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("reading %s: %w", f.path, err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal(jsonc.ToJSON(data), &creds); err != nil {
		f.log.Warn("Ignoring invalid credentials file", "path", f.path, "err", err)
		return domain.Credentials{}, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return creds, nil
}

// HasValid reports whether the file holds both an API key and a secret.
func (f *CredentialFile) HasValid() bool {
	creds, err := f.Load()
	return err == nil && creds.Complete()
}
