package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"aigateway/internal/httpapi"
)

func newAskCmd(opts *options) *cobra.Command {
	var (
		session string
		fileRef string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question from the terminal",
		Long: `Run a single question through the gateway and print the answer.

The exchange is stored in the chat log like any other, under --session
(a fresh id when omitted). Degraded answers are printed as well; the exit
code is 0 whenever an answer was produced.`,
		Example: `  aigateway ask "hola"
  aigateway ask --session demo "crear gráfico de suscripciones"
  aigateway ask --json "¿qué cursos tengo?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := opts.logger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), cfg, log, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if session == "" {
				session = uuid.NewString()
			}
			ex, err := rt.chat.Ask(cmd.Context(), session, strings.Join(args, " "), fileRef)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(httpapi.ToQueryResponse(ex))
			}
			fmt.Fprintln(out, ex.Answer.Text)
			if ex.Result.Degraded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "(degraded: %s)\n", ex.Result.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session id to append to")
	cmd.Flags().StringVar(&fileRef, "file-context", "", "Stored file context id to analyze")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}
