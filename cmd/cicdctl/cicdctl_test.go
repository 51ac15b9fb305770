package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cicdguard/backend/pkg/filter"
	"github.com/cicdguard/backend/pkg/report"
	"github.com/cicdguard/backend/pkg/vocabulary"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseTerms(t *testing.T) {
	state, err := parseTerms([]string{"jenkins:Node", "Github:Repository", "jenkins:Job", "jenkins:Node"})
	require.NoError(t, err)

	assert.Equal(t, 3, state.Len())
	assert.Equal(t, []filter.Term{
		filter.NewTerm(filter.Jenkins, "Node"),
		filter.NewTerm(filter.Jenkins, "Job"),
	}, state.Terms(filter.Jenkins))
	assert.True(t, state.Has(filter.Github, "Repository"))
}

func TestParseTermsRejectsMalformed(t *testing.T) {
	for _, arg := range []string{"Node", "jenkins:", "gitlab:Project"} {
		_, err := parseTerms([]string{arg})
		assert.Error(t, err, arg)
	}
}

func TestQueryCommand(t *testing.T) {
	out, err := runCmd(t, "query", "jenkins:Node", "jenkins:Job")
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (n:`Jenkins_Node`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r UNION "+
			"MATCH (n:`Jenkins_Job`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r\n",
		out)
}

func TestQueryCommandCategoryWithoutTermsFallsBack(t *testing.T) {
	t.Setenv("RESULT_LIMIT", "50")

	out, err := runCmd(t, "query", "--category", "jfrog", "--inline", "jenkins:Node")
	require.NoError(t, err)

	assert.Contains(t, out, "LIMIT 50")
	assert.NotContains(t, out, "Jenkins_Node")
	assert.NotContains(t, out, "$limit")
}

func TestQueryCommandUnknownCategory(t *testing.T) {
	_, err := runCmd(t, "query", "--category", "gitlab")
	assert.Error(t, err)
}

func TestPrintVocabulary(t *testing.T) {
	out := &bytes.Buffer{}
	printVocabulary(out, vocabulary.Vocabulary{
		Actions:     []string{"actions/checkout"},
		EnumValues:  []string{"Unknown", "Admin"},
		CloudValues: []string{},
	})

	text := out.String()
	assert.Contains(t, text, "Repository, Organization")
	assert.Contains(t, text, "actions/checkout")
	assert.Contains(t, text, "Unknown, Admin")
	assert.Contains(t, text, "(none)")
}

func TestPrintReport(t *testing.T) {
	out := &bytes.Buffer{}
	printReport(out, []report.Row{
		{VulnID: "CVE-2023-1", Technology: "Jenkins Server", Artifacts: "core http://ci"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "VulnID"))
	assert.Contains(t, lines[1], "CVE-2023-1")
	assert.Contains(t, lines[1], "Jenkins Server")
	assert.Equal(t, "1 vulnerabilities", lines[len(lines)-1])
}

func TestPrintReportEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	printReport(out, nil)
	assert.Equal(t, "No vulnerabilities found\n", out.String())
}

func TestNotifyRejectsUnknownScanner(t *testing.T) {
	_, err := runCmd(t, "notify", "gitlab")
	assert.Error(t, err)
}
