package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/cicdguard/backend/pkg/filter"
	"github.com/cicdguard/backend/pkg/vocabulary"

	"github.com/spf13/cobra"
)

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "vocab",
		Aliases: []string{"terms"},
		Short:   "List the filter terms found in the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, t, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer t.Close()

			v, err := vocabulary.NewService(t, cfg.DefaultStatement()).Get(cmd.Context())
			if err != nil {
				return err
			}
			printVocabulary(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func printVocabulary(w io.Writer, v vocabulary.Vocabulary) {
	fmt.Fprintln(w, brand.Sprint("Catalog"))
	for _, section := range filter.Menu() {
		fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-8s", section.Category), strings.Join(section.Terms, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, brand.Sprint("Dataset"))
	printList(w, "actions", v.Actions)
	printList(w, "enum", v.EnumValues)
	printList(w, "cloud", v.CloudValues)
}

func printList(w io.Writer, name string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-8s", name), subtle.Sprint("(none)"))
		return
	}
	fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-8s", name), strings.Join(values, ", "))
}
