package cli

import (
	"github.com/spf13/cobra"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/store"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var (
		subject string
		kind    string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously rendered cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := store.Kind(kind)
			switch k {
			case "", store.KindWeb, store.KindImage, store.KindDeck, store.KindText:
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown kind %q (web, image, deck, text)", kind)
			}
			a, err := openApp(cmd, g, needs{history: true})
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.store.List(cmd.Context(), store.Query{Subject: subject, Kind: k, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				printInfo(out, "No cards yet")
				return nil
			}
			printHistory(out, recs)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "only cards of this subject (case-insensitive)")
	cmd.Flags().StringVar(&kind, "kind", "", "only cards of this kind: web, image, deck, text")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultLimit, "maximum number of cards")
	return cmd
}
