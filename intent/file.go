package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads a dataset file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("intent: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses dataset JSON.
func Decode(data []byte) (*Dataset, error) {
	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("intent: decode dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	for _, in := range ds.Intents {
		if in.Patterns == nil {
			in.Patterns = []string{}
		}
		if in.Responses == nil {
			in.Responses = []string{}
		}
	}
	return ds, nil
}

// Encode renders the dataset as two-space indented JSON, leaving non-ASCII
// text and HTML characters unescaped.
func (d *Dataset) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("intent: encode dataset: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the dataset to path. The content is written to a temporary
// file in the same directory and renamed over path, so readers never see a
// partially written dataset.
func (d *Dataset) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("intent: save %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("intent: save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("intent: save %s: %w", path, err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpName, 0o644)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("intent: save %s: %w", path, err)
	}
	return nil
}
