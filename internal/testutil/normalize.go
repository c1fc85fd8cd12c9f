package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// volatileFields differ between otherwise identical runs.
var volatileFields = map[string]bool{
	"analysisId": true,
	"timestamp":  true,
	"durationMs": true,
	"createdAt":  true,
	"age":        true,
}

// MarshalNormalized marshals data to indented JSON with volatile fields removed
// and root replaced by <root>. Map keys come out sorted.
func MarshalNormalized(t *testing.T, root string, data any) []byte {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	// Placeholders like <root> must stay readable, so HTML escaping is off.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalizeValue(generic, root)); err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return buf.Bytes()
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, inner := range val {
			if volatileFields[k] {
				continue
			}
			result[k] = normalizeValue(inner, root)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, inner := range val {
			result[i] = normalizeValue(inner, root)
		}
		return result
	case string:
		if root != "" {
			val = strings.ReplaceAll(val, root, "<root>")
		}
		return strings.ReplaceAll(val, "\\", "/")
	default:
		return v
	}
}

// AssertSameNormalized fails with a line diff when want and got differ after normalization.
func AssertSameNormalized(t *testing.T, root string, want, got any) {
	t.Helper()

	w := MarshalNormalized(t, root, want)
	g := MarshalNormalized(t, root, got)
	if !bytes.Equal(w, g) {
		t.Fatalf("normalized output differs:\n%s", lineDiff(string(w), string(g)))
	}
}

// lineDiff lists differing lines with three lines of leading context.
func lineDiff(expected, got string) string {
	var buf strings.Builder
	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	n := max(len(expectedLines), len(gotLines))
	lastPrinted := -1
	for i := 0; i < n; i++ {
		var exp, act string
		if i < len(expectedLines) {
			exp = expectedLines[i]
		}
		if i < len(gotLines) {
			act = gotLines[i]
		}
		if exp == act {
			continue
		}
		for j := max(lastPrinted+1, i-3); j < i; j++ {
			buf.WriteString(" " + expectedLines[j] + "\n")
		}
		if i < len(expectedLines) {
			buf.WriteString("-" + exp + "\n")
		}
		if i < len(gotLines) {
			buf.WriteString("+" + act + "\n")
		}
		lastPrinted = i
	}
	return buf.String()
}
