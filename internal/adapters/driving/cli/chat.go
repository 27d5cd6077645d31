package cli

import (
	"bufio"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [file...]",
	Short: "Interactive question answering over documents",
	Long: `Indexes the given documents once, then answers questions read from
standard input until EOF or "exit".

Commands:
  /summary   summarise the documents
  /k N       retrieve N passages per question
  /sources   toggle printing of retrieved passages
  exit       leave the chat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	sess, result, err := ingestFiles(cmd, args, true)
	if err != nil {
		return err
	}
	defer sess.Close()
	printIngestResult(cmd, result)
	cmd.Println(styles.Muted.Render("Ask a question, or type exit to leave."))

	ctx := cmd.Context()
	showSources := true
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "/summary":
			summary, err := questionService.Summarise(ctx, sess)
			if err != nil {
				cmd.PrintErrln(renderError(err))
				continue
			}
			cmd.Println(styles.Answer.Render(summary))
		case line == "/sources":
			showSources = !showSources
			cmd.Printf("Sources %s\n", onOff(showSources))
		case strings.HasPrefix(line, "/k"):
			k, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/k")))
			if err != nil || k < 1 {
				cmd.PrintErrln(styles.Warning.Render("usage: /k N with N >= 1"))
				continue
			}
			sess.SetK(k)
			cmd.Printf("Retrieving %d passages per question\n", sess.K())
		default:
			answer, err := questionService.Ask(ctx, sess, line)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				cmd.PrintErrln(renderError(err))
				continue
			}
			printAnswer(cmd, answer, showSources)
		}
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
