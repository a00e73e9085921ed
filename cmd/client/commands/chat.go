package commands

import (
	"fmt"

	"wa_outbound/internal/service/app"

	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <jid>",
		Short: "Open an interactive chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// the ui owns the terminal from here on
			a := app.NewApp(cfg.OwnJID, nil, nil)

			s, err := openSession(cmd.Context(), a.HandleFrame)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.redis == nil {
				return fmt.Errorf("chat keeps its state in redis, which is unavailable")
			}
			a.UseStore(s.redis)

			go func() {
				select {
				case <-cmd.Context().Done():
				case <-s.conn.Done():
				}
				a.Stop()
			}()
			return a.Run(cmd.Context(), s.sender, args[0])
		},
	}
}
