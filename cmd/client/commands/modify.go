package commands

import (
	"wa_outbound/internal/model"

	"github.com/spf13/cobra"
)

func modifyCmd() *cobra.Command {
	var stamp string

	cmd := &cobra.Command{
		Use:       "modify <jid> <archive|unarchive|pin|unpin|mute|unmute>",
		Short:     "Archive, pin or mute a chat",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"archive", "unarchive", "pin", "unpin", "mute", "unmute"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := timeout(cmd.Context(), false)
			defer cancel()

			opts := model.ModifyOptions{Stamp: stamp}
			res, err := s.sender.ModifyChat(ctx, args[0], model.ChatModification(args[1]), opts)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&stamp, "stamp", "", "epoch seconds; required for unpin and unmute")
	return cmd
}
