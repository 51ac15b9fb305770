// Package report lists the vulnerabilities the scanners attached to nodes.
package report

import (
	"context"
	"strings"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/transport"
)

// Row is one vulnerability found on one node.
type Row struct {
	VulnID      string `json:"vulnId"`
	Description string `json:"description"`
	Technology  string `json:"technology"`
	Artifacts   string `json:"artifacts"`
	FurtherRead string `json:"furtherRead"`
}

// Headers are the column titles of a report table.
var Headers = []string{"VulnID", "Description", "Technology", "Artifacts", "Further Read"}

type source struct {
	label      string
	technology string
	subjectKey string
}

// sources are reported in this order.
var sources = []source{
	{label: "Action_Action", technology: "Github Action", subjectKey: "name"},
	{label: "Action_Workflow", technology: "Github Action Workflow", subjectKey: "name"},
	{label: "Github_Organization", technology: "Github Organization", subjectKey: "name"},
	{label: "Github_Repository", technology: "Github Repository", subjectKey: "name"},
	{label: "Jenkins_Server", technology: "Jenkins Server", subjectKey: "url"},
}

// Statement selects every reported node that has vulnerabilities attached.
func Statement() cypher.Statement {
	parts := make([]*cypher.Query, 0, len(sources))
	for _, s := range sources {
		q := cypher.Match(cypher.Node{Var: "n", Label: s.label}).
			Where(cypher.PropertyNotEquals{Var: "n", Key: "affected_vulns", Param: "none"}).
			Param("none", "").
			Return("n")
		parts = append(parts, q)
	}
	return cypher.Union(parts...)
}

// Build extracts report rows from an envelope. Nodes appearing more than
// once are reported once.
func Build(env *common.Envelope) []Row {
	byLabel := map[string][]common.RawNode{}
	seen := map[common.ID]bool{}
	if env != nil {
		for _, res := range env.Results {
			for _, frag := range res.Data {
				if frag.Graph == nil {
					continue
				}
				for _, n := range frag.Graph.Nodes {
					if seen[n.ID] {
						continue
					}
					seen[n.ID] = true
					byLabel[n.PrimaryLabel()] = append(byLabel[n.PrimaryLabel()], n)
				}
			}
		}
	}

	rows := []Row{}
	for _, s := range sources {
		for _, n := range byLabel[s.label] {
			rows = append(rows, nodeRows(s, n.Properties)...)
		}
	}
	return rows
}

func nodeRows(s source, props map[string]any) []Row {
	affected := common.PropertyString(props, "affected_vulns")
	if affected == "" {
		return nil
	}
	vulns := strings.Split(affected, "$")
	artifacts := strings.Split(common.PropertyString(props, "vuln_artifacts"), "$")
	subject := common.PropertyString(props, s.subjectKey)

	var rows []Row
	// index 0 is the empty text before the leading separator
	for i := 1; i < len(vulns); i++ {
		if strings.TrimSpace(vulns[i]) == "" {
			continue
		}
		artifact := ""
		if i < len(artifacts) {
			artifact = artifacts[i]
		}
		rows = append(rows, Row{
			VulnID:     vulns[i],
			Technology: s.technology,
			Artifacts:  artifact + " " + subject,
		})
	}
	return rows
}

// Load queries t and builds the report.
func Load(ctx context.Context, t transport.Transport) ([]Row, error) {
	env, err := t.Execute(ctx, Statement())
	if err != nil {
		return nil, err
	}
	return Build(env), nil
}
