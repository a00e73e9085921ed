package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandFlagsKeepRootFlags(t *testing.T) {
	root := newRootCmd()
	require.NotNil(t, root.PersistentFlags().Lookup("jid"))
	require.NotNil(t, root.PersistentFlags().Lookup("relay"))

	subs := []*cobra.Command{sendCmd(), chatCmd(), readCmd(), modifyCmd(), searchCmd(), deleteCmd()}
	for _, cmd := range subs {
		for _, name := range []string{"jid", "relay"} {
			assert.Nil(t, cmd.Flags().Lookup(name), "%s --%s shadows a root flag", cmd.Name(), name)
		}
	}
}

func TestSearchChatFlag(t *testing.T) {
	cmd := searchCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--chat", "456@s.whatsapp.net", "--count", "5"}))

	chat, err := cmd.Flags().GetString("chat")
	require.NoError(t, err)
	assert.Equal(t, "456@s.whatsapp.net", chat)
	assert.Nil(t, cmd.Flags().Lookup("jid"))
}
