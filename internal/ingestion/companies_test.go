package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCompanies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single column",
			input:    "Company\nAcme Corp\nGlobex\n",
			expected: []string{"Acme Corp", "Globex"},
		},
		{
			name:     "first column only",
			input:    "Company,Country\nAcme Corp,US\nInitech,UK\n",
			expected: []string{"Acme Corp", "Initech"},
		},
		{
			name:     "skips blank values",
			input:    "Company\nAcme Corp\n\n  \n,US\nGlobex\n",
			expected: []string{"Acme Corp", "Globex"},
		},
		{
			name:     "quoted names with commas",
			input:    "Company\n\"Smith, Jones & Co\"\n",
			expected: []string{"Smith, Jones & Co"},
		},
		{
			name:     "ragged rows",
			input:    "Company,A,B\nAcme\nGlobex,1,2,3\n",
			expected: []string{"Acme", "Globex"},
		},
		{
			name:     "byte order mark",
			input:    "\xEF\xBB\xBFCompany\nAcme Corp\n",
			expected: []string{"Acme Corp"},
		},
		{
			name:     "windows line endings",
			input:    "Company\r\nAcme Corp\r\nGlobex\r\n",
			expected: []string{"Acme Corp", "Globex"},
		},
		{
			name:     "header only",
			input:    "Company\n",
			expected: []string{},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCompanies(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReadCompanies_KeepsDuplicatesAndOrder(t *testing.T) {
	got, err := ReadCompanies(strings.NewReader("Company\nB\nA\nB\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "B"}, got)
}

func TestReadCompaniesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Company\nAcme Corp\nGlobex\n"), 0o644))

	companies, meta, err := ReadCompaniesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "Globex"}, companies)
	require.NotNil(t, meta)
	assert.Equal(t, path, meta.Source)
	assert.Equal(t, 2, meta.Companies)
	assert.Len(t, meta.Hash, 64)
}

func TestReadCompaniesFile_NotFound(t *testing.T) {
	_, _, err := ReadCompaniesFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestNewMetadata_HashDependsOnOrder(t *testing.T) {
	a := NewMetadata([]string{"Acme", "Globex"}, "")
	b := NewMetadata([]string{"Globex", "Acme"}, "")
	c := NewMetadata([]string{"Acme", "Globex"}, "other.csv")

	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, a.Hash, c.Hash)
	assert.NotEmpty(t, a.Timestamp)
}
