package age

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cicdguard/backend/pkg/common"
)

// agEntity is a vertex or an edge as printed by agtype_out, after the type
// annotations were stripped.
type agEntity struct {
	ID         json.Number    `json:"id"`
	Label      string         `json:"label"`
	StartID    json.Number    `json:"start_id"`
	EndID      json.Number    `json:"end_id"`
	Properties map[string]any `json:"properties"`
}

func (e agEntity) isEdge() bool {
	return e.StartID != "" || e.EndID != ""
}

// stripAnnotations removes "::vertex", "::edge", "::path" and similar type
// suffixes outside of string literals so the value becomes plain JSON.
func stripAnnotations(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ':' && i+1 < len(s) && s[i+1] == ':' {
			i += 2
			for i < len(s) && isWordByte(s[i]) {
				i++
			}
			i--
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// parseValue decodes one agtype column into graph elements. Scalars and
// maps that are neither vertices nor edges are ignored.
func parseValue(text string, path string, g *common.FragmentGraph) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripAnnotations(text))))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return &common.DataShapeError{Path: path, Reason: fmt.Sprintf("invalid agtype: %v", err)}
	}
	return collect(raw, path, g)
}

func collect(v any, path string, g *common.FragmentGraph) error {
	switch t := v.(type) {
	case []any:
		for i, item := range t {
			if err := collect(item, fmt.Sprintf("%s[%d]", path, i), g); err != nil {
				return err
			}
		}
	case map[string]any:
		if _, ok := t["id"]; !ok {
			return nil
		}
		if _, ok := t["label"]; !ok {
			return nil
		}
		ent, err := toEntity(t)
		if err != nil {
			return &common.DataShapeError{Path: path, Reason: err.Error()}
		}
		if ent.isEdge() {
			g.Relationships = append(g.Relationships, common.RawEdge{
				ID:         common.ID(ent.ID.String()),
				Type:       ent.Label,
				StartNode:  common.ID(ent.StartID.String()),
				EndNode:    common.ID(ent.EndID.String()),
				Properties: normalize(ent.Properties),
			})
			return nil
		}
		g.Nodes = append(g.Nodes, common.RawNode{
			ID:         common.ID(ent.ID.String()),
			Labels:     []string{ent.Label},
			Properties: normalize(ent.Properties),
		})
	}
	return nil
}

func toEntity(m map[string]any) (agEntity, error) {
	var ent agEntity
	data, err := json.Marshal(m)
	if err != nil {
		return ent, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&ent); err != nil {
		return ent, err
	}
	if ent.ID == "" {
		return ent, fmt.Errorf("entity without id")
	}
	return ent, nil
}

// normalize turns json.Number values into float64 so properties look the
// same as the ones decoded from the HTTP transport.
func normalize(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	for k, v := range props {
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				props[k] = f
			}
		}
	}
	return props
}

// returnColumns extracts the projected column names of the last RETURN
// clause of a statement.
func returnColumns(text string) []string {
	upper := asciiUpper(text)
	idx := strings.LastIndex(upper, "RETURN ")
	if idx < 0 {
		return nil
	}
	rest := text[idx+len("RETURN "):]
	restUpper := upper[idx+len("RETURN "):]
	if strings.HasPrefix(restUpper, "DISTINCT ") {
		rest = rest[len("DISTINCT "):]
		restUpper = restUpper[len("DISTINCT "):]
	}
	for _, kw := range []string{" ORDER BY ", " SKIP ", " LIMIT "} {
		if i := strings.Index(restUpper, kw); i >= 0 {
			rest = rest[:i]
			restUpper = restUpper[:i]
		}
	}

	var cols []string
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.LastIndex(asciiUpper(part), " AS "); i >= 0 {
			part = strings.TrimSpace(part[i+4:])
		}
		cols = append(cols, part)
	}
	return cols
}

// asciiUpper upper-cases a-z only, so byte offsets into the result are
// valid offsets into s.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
