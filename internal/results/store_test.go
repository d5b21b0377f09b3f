package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-scout/internal/types"
)

var sample = []types.CompanyResult{
	types.MatchedResult("Acme Corp", "acme.com", &types.RankedMatch{
		Name:       "Jane Doe",
		JobTitle:   "VP People",
		ProfileURL: "https://www.linkedin.com/in/janedoe",
		Confidence: types.ConfidenceHigh,
		Reasoning:  "Title says VP People, at Acme",
	}),
	types.ErrorResult("Globex", "net::ERR_CONNECTION_RESET"),
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Company,Domain,Name,Job Title,LinkedIn Profile,AI Confidence,AI Reasoning", lines[0])
	assert.Equal(t, `Acme Corp,acme.com,Jane Doe,VP People,https://www.linkedin.com/in/janedoe,High,"Title says VP People, at Acme"`, lines[1])
	assert.Equal(t, "Globex,Error,Error,-,-,Low,net::ERR_CONNECTION_RESET", lines[2])
}

func TestWriteCSV_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Company,Domain,Name,Job Title,LinkedIn Profile,AI Confidence,AI Reasoning\n", buf.String())
}

func TestStore_WriteAndPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	store := NewStore(dir)
	store.now = func() time.Time { return time.UnixMilli(1700000000123) }

	name, err := store.Write(sample)
	require.NoError(t, err)
	assert.Equal(t, "results_1700000000123.csv", name)

	path, err := store.Path(name)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.CompanyResult
	require.NoError(t, csvutil.Unmarshal(data, &got))
	assert.Equal(t, sample, got)
}

func TestStore_WriteSameMillisecond(t *testing.T) {
	store := NewStore(t.TempDir())
	store.now = func() time.Time { return time.UnixMilli(42) }

	first, err := store.Write(sample)
	require.NoError(t, err)
	second, err := store.Write(nil)
	require.NoError(t, err)

	assert.Equal(t, "results_42.csv", first)
	assert.Equal(t, "results_42_1.csv", second)
}

func TestStore_PathRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	for _, name := range []string{"", "..", "../etc/passwd", "sub/results_1.csv", `..\results_1.csv`, "secret.txt"} {
		_, err := store.Path(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestStore_PathNotFound(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Path("results_1.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}
