package filter

// Catalog lists the node types offered per family, independent of the
// loaded data.
var Catalog = map[Category][]string{
	Jenkins: {"Node", "Job", "Server", "Build", "User", "Plugin"},
	Action:  {"Workflow", "Job", "Runner", "Step", "Action", "Command"},
	Github:  {"Repository", "Organization"},
	JFrog:   {"User", "Group"},
}

// MenuSection is one family of the filter menu.
type MenuSection struct {
	Category Category `json:"category"`
	Terms    []string `json:"terms"`
}

// Menu returns the catalog in Categories order.
func Menu() []MenuSection {
	sections := make([]MenuSection, 0, len(Categories))
	for _, c := range Categories {
		sections = append(sections, MenuSection{Category: c, Terms: Catalog[c]})
	}
	return sections
}
