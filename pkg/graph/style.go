package graph

import (
	"strings"

	"github.com/cicdguard/backend/pkg/common"
)

const (
	defaultSize    = 10
	defaultMinSize = 10
	defaultMaxSize = 25

	anomalySize        = 15
	anomalyBorderWidth = 3

	colorNeutral = "#808080"
	colorMuted   = "#777777"
	colorAlert   = "#FF0000"
	colorBorder  = "#000000"
	colorIcon    = "#FFF"

	glyphBug = "\uf188"
)

// icons maps lower-cased labels or sub-types to FontAwesome glyphs.
var icons = map[string]string{
	"runner":       "\uf233",
	"workflow":     "\uf0e8",
	"repo":         "\uf09b",
	"job":          "\uf0ae",
	"step":         "\uf051",
	"command":      "\uf121",
	"action":       "\uf1fa",
	"organization": "\uf140",
	"jenkins":      "\uf3b6",
}

// Style holds the visual attributes derived for one node.
type Style struct {
	Size        int    `json:"size"`
	MinSize     int    `json:"minSize"`
	MaxSize     int    `json:"maxSize"`
	Color       string `json:"color"`
	BorderColor string `json:"borderColor"`
	BorderWidth int    `json:"borderWidth"`
	Icon        Icon   `json:"icon"`
}

// Icon describes the glyph drawn inside a node.
type Icon struct {
	Font    string  `json:"font"`
	Content string  `json:"content"`
	Color   string  `json:"color"`
	Scale   float64 `json:"scale"`
}

// styleRule colors one label family, optionally narrowed to a sub-type whose
// appearance depends on a property.
type styleRule struct {
	family  string
	subType string
	color   string
	// muted reports whether the node should be drawn muted instead.
	muted func(props map[string]any) bool
}

var styleRules = []styleRule{
	{
		family:  "jenkins",
		subType: "jenkins_plugin",
		color:   "#48728B",
		muted: func(props map[string]any) bool {
			return strings.Contains(strings.ToLower(common.PropertyString(props, "enabled")), "false")
		},
	},
	{family: "jenkins", color: "#48728B"},
	{family: "action", color: "#4169E1"},
	{family: "github", color: "#000000"},
	{
		family:  "jfrog",
		subType: "jfrog_user",
		color:   "#18A558",
		muted: func(props map[string]any) bool {
			return strings.Contains(strings.ToLower(common.PropertyString(props, "status")), "disabled")
		},
	},
	{family: "jfrog", color: "#18A558"},
}

// DeriveStyle computes the style of a node from its primary label and
// properties. It is a pure function: equal inputs give equal styles.
func DeriveStyle(primaryLabel string, props map[string]any) Style {
	label := strings.ToLower(primaryLabel)

	style := Style{
		Size:        defaultSize,
		MinSize:     defaultMinSize,
		MaxSize:     defaultMaxSize,
		Color:       familyColor(label, props),
		BorderColor: colorBorder,
		Icon: Icon{
			Font:    "FontAwesome",
			Content: iconFor(label),
			Color:   colorIcon,
			Scale:   1.0,
		},
	}

	if HasAnomaly(props) {
		style.Icon.Content = glyphBug
		style.Color = colorAlert
		style.Size = anomalySize
		style.MinSize = anomalySize
		style.BorderWidth = anomalyBorderWidth
	}

	return style
}

// HasAnomaly reports whether the node carries at least one affected
// vulnerability. The property is a "$"-joined list, usually with a leading
// separator.
func HasAnomaly(props map[string]any) bool {
	for _, v := range strings.Split(common.PropertyString(props, "affected_vulns"), "$") {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func familyColor(label string, props map[string]any) string {
	for _, rule := range styleRules {
		if !strings.HasPrefix(label, rule.family) {
			continue
		}
		if rule.subType != "" && !strings.HasPrefix(label, rule.subType) {
			continue
		}
		if rule.muted != nil && rule.muted(props) {
			return colorMuted
		}
		return rule.color
	}
	return colorNeutral
}

// iconFor matches the whole lower-cased label only; family-prefixed
// labels such as action_runner carry no glyph.
func iconFor(label string) string {
	return icons[label]
}
