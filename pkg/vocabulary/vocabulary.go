// Package vocabulary derives the selectable filter terms from a loaded
// dataset.
package vocabulary

import (
	"strings"

	"github.com/cicdguard/backend/pkg/common"
)

// UnknownEnum is always offered as an enum value.
const UnknownEnum = "Unknown"

// Vocabulary is the menu of terms found in a dataset. Each list holds
// distinct values in first-seen order.
type Vocabulary struct {
	Actions     []string `json:"actions"`
	EnumValues  []string `json:"enumValues"`
	CloudValues []string `json:"cloudValues"`
}

type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet(seed ...string) *orderedSet {
	s := &orderedSet{seen: map[string]struct{}{}, values: []string{}}
	for _, v := range seed {
		s.add(v)
	}
	return s
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

// Extract scans every node of the envelope. Seed nodes contribute the
// actions encoded in their action property; every other node contributes
// its enum prefix and cloud value. Missing properties read as empty.
func Extract(env *common.Envelope) (Vocabulary, error) {
	if env == nil || len(env.Results) == 0 || env.Results[0].Data == nil {
		return Vocabulary{}, &common.DataShapeError{Path: "results[0].data", Reason: "missing"}
	}

	actions := newOrderedSet()
	enums := newOrderedSet(UnknownEnum)
	clouds := newOrderedSet()

	for _, result := range env.Results {
		for _, fragment := range result.Data {
			if fragment.Graph == nil {
				continue
			}
			for _, node := range fragment.Graph.Nodes {
				props := node.Properties
				if strings.Contains(strings.ToLower(common.PropertyString(props, "tag")), "seed") {
					for _, action := range SeedActions(common.PropertyString(props, "action")) {
						actions.add(action)
					}
					continue
				}

				if enum := common.PropertyString(props, "enum"); strings.Contains(enum, "#") {
					before, _, _ := strings.Cut(enum, "#")
					enums.add(before)
				}
				if cloud := common.PropertyString(props, "cloud"); cloud != "" {
					clouds.add(cloud)
				}
			}
		}
	}

	return Vocabulary{
		Actions:     actions.values,
		EnumValues:  enums.values,
		CloudValues: clouds.values,
	}, nil
}

// SeedActions decodes a seed node's action property. The value is a
// "$"-separated list of tokens shaped like "<prefix>#<action>@<suffix>";
// tokens without "#" are skipped.
func SeedActions(value string) []string {
	var out []string
	for _, token := range strings.Split(value, "$") {
		_, after, ok := strings.Cut(token, "#")
		if !ok {
			continue
		}
		after, _, _ = strings.Cut(after, "#")
		action, _, _ := strings.Cut(after, "@")
		out = append(out, action)
	}
	return out
}
