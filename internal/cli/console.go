package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pamonha-express/server/internal/dialog"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the assistant from the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app, err := Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = "console-" + uuid.NewString()
		}
		return runConsole(ctx, app.Engine, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("session", "", "session id to use (default: random)")
}

type turnHandler interface {
	HandleTurn(ctx context.Context, sessionID, message string) (dialog.Reply, error)
}

// runConsole relays lines from in to the engine until EOF.
func runConsole(ctx context.Context, engine turnHandler, sessionID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Sessão %s. Digite sua mensagem (Ctrl+D para sair do console).\n", sessionID)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		msg := strings.TrimSpace(sc.Text())
		if msg == "" {
			continue
		}
		reply, err := engine.HandleTurn(ctx, sessionID, msg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Text)
		for i, b := range reply.Buttons {
			fmt.Fprintf(out, "  [%d] %s (%s)\n", i+1, b.Label, b.Value)
		}
	}
}
