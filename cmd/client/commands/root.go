package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"wa_outbound/internal/boot"
	"wa_outbound/internal/model"
	"wa_outbound/internal/utils/log"

	"github.com/spf13/cobra"
)

var (
	cfg *boot.Config

	relayURL string
	ownJID   string
)

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wa-client",
		Short:         "Compose and send chat messages through a relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := boot.Load(cmd.Context())
			if err != nil {
				return err
			}
			if relayURL != "" {
				c.RelayURL = relayURL
			}
			if ownJID != "" {
				c.OwnJID = ownJID
			}

			if err := log.Init(c.LogLevel, c.IsDevelopment()); err != nil {
				return err
			}
			if err := model.ValidateJID(c.OwnJID); err != nil {
				return fmt.Errorf("own jid (--jid or OWN_JID): %w", err)
			}
			cfg = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay websocket url (default $RELAY_URL)")
	root.PersistentFlags().StringVar(&ownJID, "jid", "", "your jid (default $OWN_JID)")

	root.AddCommand(sendCmd(), chatCmd(), readCmd(), modifyCmd(), searchCmd(), deleteCmd())
	return root
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
