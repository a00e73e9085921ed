package commands

import (
	"wa_outbound/internal/model"

	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	var (
		forMe  bool
		fromMe bool
	)

	cmd := &cobra.Command{
		Use:   "delete <jid> <message-id>",
		Short: "Revoke a message for everyone, or clear it for this device only",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := timeout(cmd.Context(), false)
			defer cancel()

			key := model.MessageKey{RemoteJID: args[0], FromMe: fromMe, ID: args[1]}
			status, err := s.sender.DeleteMessage(ctx, args[0], key, forMe)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"status": status})
		},
	}
	cmd.Flags().BoolVar(&forMe, "for-me", false, "clear locally instead of revoking")
	cmd.Flags().BoolVar(&fromMe, "from-me", true, "the message was sent by you")
	return cmd
}
