package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListItems(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{name: "bare array", raw: `[{"id":1},{"id":2}]`, want: 2, wantOK: true},
		{name: "page object", raw: `{"records":[{"id":1}],"total":1}`, want: 1, wantOK: true},
		{name: "list key", raw: `{"list":[]}`, want: 0, wantOK: true},
		{name: "array of scalars", raw: `[1,2]`},
		{name: "plain object", raw: `{"id":1}`},
		{name: "not JSON", raw: `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, ok := listItems(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestField(t *testing.T) {
	item := map[string]any{"id": float64(1234567), "title": "", "name": "x", "flag": true}

	assert.Equal(t, "1234567", field(item, "id"))
	assert.Equal(t, "x", field(item, "title", "name"), "empty strings are skipped")
	assert.Equal(t, "true", field(item, "flag"))
	assert.Equal(t, "", field(item, "missing"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\t c", 10))
	assert.Equal(t, "今天天…", truncate("今天天气很好", 4))
}

func TestWriteMoments_NoColor(t *testing.T) {
	var buf bytes.Buffer
	items := []map[string]any{{"id": float64(1), "mood": "疲惫", "content": "long day", "createTime": "2024-05-01"}}

	require.NoError(t, writeMoments(&buf, items, true))
	assert.Equal(t, "😪 1  疲惫  long day  (2024-05-01)\n", buf.String())
}

func TestReadBodyFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "body.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"a":1}`), 0o600))
	body, err := readBodyFile(jsonPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(body))

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{"a":`), 0o600))
	_, err = readBodyFile(badJSON)
	assert.Error(t, err)

	badYAML := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badYAML, []byte("a: [1, 2"), 0o600))
	_, err = readBodyFile(badYAML)
	assert.Error(t, err)
}
