// Package results writes finished runs to CSV files that can be downloaded later.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/types"
)

// Errors returned when resolving a stored file.
var (
	ErrInvalidName = errors.New("invalid result file name")
	ErrNotFound    = errors.New("result file not found")
)

// FilePrefix and FileExt frame generated result file names.
const (
	FilePrefix = "results_"
	FileExt    = ".csv"
)

// Store keeps result files in one directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Write stores results as results_<unix-millis>.csv and returns the file name.
func (s *Store) Write(results []types.CompanyResult) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	base := fmt.Sprintf("%s%d", FilePrefix, s.now().UnixMilli())
	var (
		f    *os.File
		name string
		err  error
	)
	for attempt := 0; attempt < 100; attempt++ {
		name = base + FileExt
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d%s", base, attempt, FileExt)
		}
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}

	if err := WriteCSV(f, results); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close result file: %w", err)
	}

	zap.L().Info("results written", zap.String("file", name), zap.Int("rows", len(results)))
	return name, nil
}

// Path resolves a stored file name to its path. Names containing path elements are
// rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		name == "." || name == ".." || !strings.HasSuffix(name, FileExt) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to stat result file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// WriteCSV encodes results with the fixed column header, even when there are no rows.
func WriteCSV(w io.Writer, results []types.CompanyResult) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(types.CompanyResult{}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range results {
		if err := enc.Encode(results[i]); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
