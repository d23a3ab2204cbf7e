package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/journal/internal/errors"
	"github.com/felixgeelhaar/journal/internal/mood"
)

// addBodyFlags registers --data and --file on a write command
func addBodyFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "request body as inline JSON")
	cmd.Flags().StringP("file", "f", "", "read the request body from a JSON or YAML file")
}

// readBody returns the request body given by --data or --file as JSON
func readBody(cmd *cobra.Command) (json.RawMessage, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("--data and --file are mutually exclusive")
	case data != "":
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("--data is not valid JSON")
		}
		return json.RawMessage(data), nil
	case file != "":
		return readBodyFile(file)
	default:
		return nil, fmt.Errorf("a request body is required: pass --data or --file")
	}
}

func readBodyFile(path string) (json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
		return out, nil
	default:
		if !json.Valid(content) {
			return nil, errors.NewFileUnmarshalError(path, "JSON", fmt.Errorf("invalid JSON"))
		}
		return json.RawMessage(content), nil
	}
}

// listItems finds the record list in a listing response. Listings come back
// either as a bare array or as a page object holding the array.
func listItems(raw json.RawMessage) ([]map[string]any, bool) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range []string{"records", "list", "items", "content", "rows"} {
			if l, ok := v[key].([]any); ok {
				list = l
				break
			}
		}
	}
	if list == nil {
		return nil, false
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, false
		}
		items = append(items, m)
	}
	return items, true
}

// field returns the first non-empty value among keys, rendered as text
func field(item map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

// writeMoments renders moments one per line with their mood emoji
func writeMoments(w io.Writer, items []map[string]any, noColor bool) error {
	for _, item := range items {
		label := field(item, "mood")
		display := mood.Lookup(label)
		if label != "" && !noColor {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(display.Color)).Render(label)
		}

		line := fmt.Sprintf("%s %s", display.Emoji, field(item, "id"))
		if label != "" {
			line += "  " + label
		}
		if content := field(item, "content", "text"); content != "" {
			line += "  " + truncate(content, 60)
		}
		if created := field(item, "createTime", "createdAt", "created_at"); created != "" {
			line += "  (" + created + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeArticles renders one article per line
func writeArticles(w io.Writer, items []map[string]any) error {
	for _, item := range items {
		line := fmt.Sprintf("%-6s %s", field(item, "id"), field(item, "title"))
		if category := field(item, "category", "categoryName"); category != "" {
			line += "  [" + category + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
