package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/refubot-go/internal/answer"
	"github.com/54b3r/refubot-go/internal/logging"
	"github.com/54b3r/refubot-go/internal/tracing"
)

// NewAskCmd constructs the `refubot ask` command, which answers one message
// the same way POST /get does and prints the result.
func NewAskCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Answer a single message from the command line",
		Long: `Run one message through the answer pipeline and print the reply.

With --path the message is scoped to a catalog category, exactly as if the
visitor had selected it in the chat page.

Examples:
  refubot ask "What does REFU build?"
  refubot ask "Tell me about inverter.aux_inverter.single_inverter.17kva"
  refubot ask --path inverter.aux_inverter.single_inverter.17kva "what is the cooling requirement?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			flush := tracing.Setup(log)
			defer flush()

			tree, err := loadCatalog(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			orch, vectors, err := buildOrchestrator(ctx, tree, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			reply, err := orch.Answer(ctx, answer.Request{
				Message: strings.Join(args, " "),
				Path:    path,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			out := cmd.OutOrStdout()
			if reply.Kind == answer.KindCoolingGraph {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reply.Graph) //nolint:wrapcheck // CLI entry point
			}
			_, err = fmt.Fprintln(out, reply.Text)
			return err //nolint:wrapcheck // CLI entry point
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Selected catalog category path")

	return cmd
}
