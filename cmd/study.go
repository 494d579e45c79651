package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/services"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Study flashcards in the terminal",
	Long: `Study flashcards in the terminal.

Each card shows a word. Press enter to flip it, then answer
y (remembered), n (forgot), s (skip) or q (finish early).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		countFlag, _ := cmd.Flags().GetString("count")
		order, _ := cmd.Flags().GetString("order")
		review, _ := cmd.Flags().GetBool("review")

		count, err := models.ParseQuestionCount(countFlag)
		if err != nil {
			return err
		}

		a, _, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if end == 0 {
			if end, err = a.Vocabulary.Count(cmd.Context()); err != nil {
				return err
			}
			end = max(end, start)
		}

		cfg := models.StudyConfig{
			StartRange:    start,
			EndRange:      end,
			QuestionCount: count,
			Order:         models.Order(order),
			ReviewOnly:    review,
		}

		final, err := studyLoop(cmd.Context(), a.Study, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), final)
		return nil
	},
}

// studyLoop drives one run from the terminal until it completes, the user quits or input ends
func studyLoop(ctx context.Context, svc *services.StudyService, cfg models.StudyConfig, in io.Reader, out io.Writer) (*services.RunState, error) {
	state, err := svc.BeginRun(ctx, cfg)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	read := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(scanner.Text())), true
	}

	for state.Outcome == nil {
		word := state.CurrentWord
		fmt.Fprintf(out, "\n[%d/%d] %s\n", state.Position+1, state.Length, word.Word)
		fmt.Fprint(out, "(enter to flip) ")

		line, ok := read()
		if !ok || line == "q" {
			return svc.Finish(ctx, state.ID)
		}

		fmt.Fprintf(out, "  %s\n", word.Meaning)
		if word.Example != nil {
			fmt.Fprintf(out, "  e.g. %s\n", *word.Example)
		}

	answer:
		for {
			fmt.Fprint(out, "remembered? [y/n/s/q] ")
			line, ok := read()
			if !ok {
				return svc.Finish(ctx, state.ID)
			}

			switch line {
			case "y", "n":
				state, err = svc.Mark(ctx, state.ID, line == "y")
			case "s":
				state, err = svc.Skip(ctx, state.ID)
			case "q":
				return svc.Finish(ctx, state.ID)
			default:
				continue
			}
			if err != nil {
				return nil, err
			}
			break answer
		}
	}

	return state, nil
}

func printOutcome(out io.Writer, state *services.RunState) {
	outcome := state.Outcome
	if outcome == nil {
		return
	}

	fmt.Fprintf(out, "\n%s: %d of %d remembered (%d%%), %d forgotten\n",
		outcome.State, outcome.CorrectCount, outcome.TotalWords, outcome.Accuracy, outcome.IncorrectCount)
}

func init() {
	rootCmd.AddCommand(studyCmd)

	studyCmd.Flags().Int("start", 1, "first word position (1-based)")
	studyCmd.Flags().Int("end", 0, "last word position, 0 for the whole vocabulary")
	studyCmd.Flags().StringP("count", "n", "all", "number of cards, or all")
	studyCmd.Flags().String("order", string(models.OrderRandom), "sequential, random or difficulty")
	studyCmd.Flags().Bool("review", false, "study the words answered wrong so far")
}
