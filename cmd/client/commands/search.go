package commands

import (
	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		chat  string
		count int
		page  int
	)

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search messages on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := timeout(cmd.Context(), false)
			defer cancel()

			res, err := s.sender.SearchMessages(ctx, args[0], chat, count, page)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "only search this chat jid")
	cmd.Flags().IntVar(&count, "count", 20, "results per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}
