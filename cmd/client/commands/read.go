package commands

import (
	"github.com/spf13/cobra"
)

func readCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "read <jid> [message-id]",
		Short: "Mark a message or a whole chat as read",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 2 {
				id = args[1]
			}

			s, err := openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := timeout(cmd.Context(), false)
			defer cancel()

			resp, err := s.sender.SendReadReceipt(ctx, args[0], id, unread)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "mark as unread instead")
	return cmd
}
