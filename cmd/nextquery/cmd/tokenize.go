package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextquery/nextquery/internal/vocab"
)

var subwordEncoding string

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <query>...",
	Short: "Show the token split for a query",
	Long: `Tokenize splits a query the way the vocabulary does: lowercased,
wordpunct-style, punctuation-only tokens dropped. With --subword it
encodes through a tiktoken BPE encoding instead and prints token ids.

Examples:
  nextquery tokenize "How to brew coffee?"
  nextquery tokenize --subword cl100k_base "How to brew coffee?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
	tokenizeCmd.Flags().StringVar(&subwordEncoding, "subword", "", "Encode with a tiktoken encoding (e.g. cl100k_base)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if subwordEncoding != "" {
		sw, err := vocab.NewSubword(subwordEncoding)
		if err != nil {
			return err
		}
		ids := sw.Encode(query)
		for i, id := range ids {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Print(id)
		}
		fmt.Println()
		return nil
	}

	for _, tok := range vocab.Tokenize(query) {
		fmt.Println(tok)
	}
	return nil
}
