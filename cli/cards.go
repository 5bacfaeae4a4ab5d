package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/factzy/dsl"
	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/layout"
	"github.com/ByLCY/factzy/pipeline"
)

func newWebCmd(g *globals) *cobra.Command {
	var perSentence bool
	cmd := &cobra.Command{
		Use:   "web <topic...>",
		Short: "Make flashcards from an encyclopedia topic",
		Example: `  factzy web Photosynthesis
  factzy web --per-sentence French Revolution`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g.bind(cmd, "out", "output.dir")
			a, err := openApp(cmd, g, needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			topic := strings.Join(args, " ")
			prog := newProgress(a.log)
			cards, err := a.pipeline.Web(cmd.Context(), topic, pipeline.WebOptions{PerSentence: perSentence})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered %d cards", len(cards)))

			out := cmd.OutOrStdout()
			printSuccess(out, "%s %s", StyleTitle.Render(topic), StyleDim.Render("("+cardsSubject(cards)+")"))
			printCards(out, cards)
			return nil
		},
	}
	cmd.Flags().BoolVar(&perSentence, "per-sentence", false, "one card per sentence instead of 3 to 5 chunks")
	cmd.Flags().String("out", "", "output directory (overrides output.dir)")
	return cmd
}

func newImageCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image [paths...]",
		Short: "Make Q/A flashcards from photos of notes",
		Long: `Runs OCR on each .png/.jpg/.jpeg image, extracts question/answer pairs and renders one card per pair.
Without arguments every image in input_dir is processed in name order. A failing image is reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g.bind(cmd, "out", "output.dir")
			g.bind(cmd, "in", "input_dir")
			a, err := openApp(cmd, g, needs{ocr: true, chat: true})
			if err != nil {
				return err
			}
			defer a.Close()

			prog := newProgress(a.log)
			var cards []pipeline.Card
			if len(args) == 0 {
				printInfo(cmd.OutOrStdout(), "Scanning %s", StyleHighlight.Render(a.cfg.InputDir))
				cards, err = a.pipeline.Images(cmd.Context(), a.cfg.InputDir)
			} else {
				cards, err = a.pipeline.ImageFiles(cmd.Context(), args)
			}
			prog.done(fmt.Sprintf("Rendered %d cards", len(cards)))

			out := cmd.OutOrStdout()
			printCards(out, cards)
			if err != nil && len(cards) > 0 {
				printWarning(out, "some images failed")
			}
			return err
		},
	}
	cmd.Flags().String("in", "", "input directory (overrides input_dir)")
	cmd.Flags().String("out", "", "output directory (overrides output.dir)")
	return cmd
}

func newRenderCmd(g *globals) *cobra.Command {
	var (
		text      string
		inPath    string
		outPath   string
		debugPath string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render exactly one card from text",
		Example: `  factzy render --text "Water boils at 100 C at sea level." --out water.png
  factzy render --in notes.txt --out notes.png --debug notes.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readRenderInput(cmd.InOrStdin(), text, inPath, cmd.Flags().Changed("text"))
			if err != nil {
				return err
			}
			a, err := openApp(cmd, g, needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			card, err := a.pipeline.Single(cmd.Context(), content, outPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Rendered card")
			printCards(out, []pipeline.Card{card})

			if debugPath != "" {
				res, err := a.cards.Plan(content)
				if err != nil {
					return err
				}
				if err := layout.WriteDebugJSON(res, debugPath); err != nil {
					return errors.Wrap(errors.ErrCodeIO, err, "write layout %s", debugPath)
				}
				printInfo(out, "Layout written to %s", debugPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "card text")
	cmd.Flags().StringVar(&inPath, "in", "", "read card text from a file (- for stdin)")
	cmd.Flags().StringVar(&outPath, "out", "", "output image path (.png, .jpg, .gif, .tif, .bmp)")
	cmd.Flags().StringVar(&debugPath, "debug", "", "write the layout as JSON to this path")
	cmd.MarkFlagsMutuallyExclusive("text", "in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// readRenderInput returns the card text from --text, a file, or stdin. Empty text is allowed.
func readRenderInput(stdin io.Reader, text, inPath string, textSet bool) (string, error) {
	switch {
	case textSet:
		return text, nil
	case inPath == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read stdin")
		}
		return string(b), nil
	case inPath != "":
		b, err := os.ReadFile(inPath)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read %s", inPath)
		}
		return string(b), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "one of --text or --in is required")
	}
}

func newDeckCmd(g *globals) *cobra.Command {
	var dataArg string
	cmd := &cobra.Command{
		Use:   "deck FILE",
		Short: "Render every card of a deck file",
		Example: `  factzy deck physics.deck
  factzy deck vocab.deck --data '{"lang":"French"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g.bind(cmd, "out", "output.dir")
			data, err := parseDeckData(dataArg)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeIO, err, "open deck %s", args[0])
			}
			defer f.Close()
			doc, err := dsl.Parse(f)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse deck %s", args[0])
			}

			a, err := openApp(cmd, g, needs{})
			if err != nil {
				return err
			}
			defer a.Close()

			prog := newProgress(a.log)
			cards, err := a.pipeline.Deck(cmd.Context(), doc, data)
			out := cmd.OutOrStdout()
			printCards(out, cards)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered %d cards from %d decks", len(cards), len(doc.Decks)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataArg, "data", "", "JSON bound to ${...} placeholders; inline or @file")
	cmd.Flags().String("out", "", "output directory (overrides output.dir)")
	return cmd
}

// parseDeckData decodes inline JSON, or the file named after a leading @.
func parseDeckData(arg string) (any, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read data %s", name)
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse data JSON")
	}
	return data, nil
}

func cardsSubject(cards []pipeline.Card) string {
	if len(cards) == 0 {
		return "no cards"
	}
	return cards[0].Subject
}
