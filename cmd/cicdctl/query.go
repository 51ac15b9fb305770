package main

import (
	"fmt"
	"strings"

	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/filter"

	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	var (
		category string
		inline   bool
	)

	cmd := &cobra.Command{
		Use:   "query [category:term ...]",
		Short: "Print the statement a set of filter terms produces",
		Example: "  cicdctl query jenkins:Node jenkins:Job\n" +
			"  cicdctl query --category github github:Repository action:Step",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := parseTerms(args)
			if err != nil {
				return err
			}
			fallback := cypher.WholeGraph(util.GetEnvInt("RESULT_LIMIT", 2000))

			var stmt cypher.Statement
			if category != "" {
				c, err := filter.ParseCategory(category)
				if err != nil {
					return err
				}
				stmt = state.SynthesizeQuery(c, fallback)
			} else {
				stmt = state.SynthesizeAll(fallback)
			}

			if inline {
				fmt.Fprintln(cmd.OutOrStdout(), cypher.Inline(stmt))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt.Text)
			for name, value := range stmt.Parameters {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s=%v\n", subtle.Sprint("//"), name, value)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only use the terms of this category")
	cmd.Flags().BoolVar(&inline, "inline", false, "substitute parameters into the statement text")

	return cmd
}

// parseTerms builds a filter state from category:term arguments, keeping
// the argument order within each category.
func parseTerms(args []string) (filter.State, error) {
	state := filter.State{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, ":")
		if !ok || value == "" {
			return state, fmt.Errorf("invalid term %q, expected category:term", arg)
		}
		c, err := filter.ParseCategory(strings.ToLower(name))
		if err != nil {
			return state, err
		}
		state, _ = state.With(filter.NewTerm(c, value))
	}
	return state, nil
}
