package db

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/oKV/cmd/util"
	"github.com/ValentinKolb/oKV/lib/ordered"
	"github.com/ValentinKolb/oKV/rpc/client"
)

var (
	rpcStore  *client.RPCStore
	orderedDB *ordered.DB

	// DBCommands groups the ordered store operations
	DBCommands = &cobra.Command{
		Use:                "db",
		Short:              "Work with an ordered store kept on an oKV server",
		PersistentPreRunE:  setupDB,
		PersistentPostRunE: teardownDB,
	}
)

func init() {
	util.SetupRPCClientFlags(DBCommands)

	key := "name"
	DBCommands.PersistentFlags().String(key, "default", util.WrapString("Name of the ordered store, several stores can share one shard"))

	key = "prefetch"
	DBCommands.PersistentFlags().Int(key, ordered.DefaultPrefetchSize, util.WrapString("Number of entries a range fetches per round trip"))

	DBCommands.AddCommand(putCmd)
	DBCommands.AddCommand(getCmd)
	DBCommands.AddCommand(delCmd)
	DBCommands.AddCommand(rangeCmd)
	DBCommands.AddCommand(keysCmd)
	DBCommands.AddCommand(countCmd)
	DBCommands.AddCommand(batchCmd)
	DBCommands.AddCommand(destroyCmd)
	DBCommands.AddCommand(infoCmd)
	DBCommands.AddCommand(perfCmd)
}

// setupDB connects to the shard and creates the (still closed) ordered store
func setupDB(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(util.GetShardID(), util.GetClientConfig(), t, s)
	if err != nil {
		return err
	}

	orderedDB, err = ordered.New(viper.GetString("name"), rpcStore, &ordered.Options{
		PrefetchSize: viper.GetInt("prefetch"),
	})
	return err
}

// openDB loads the key index of the store, commands that only touch the flat store skip it
func openDB() error {
	if err := orderedDB.Open(); err != nil {
		return fmt.Errorf("failed to open %q: %w", orderedDB.Location(), err)
	}
	return nil
}

func teardownDB(_ *cobra.Command, _ []string) error {
	if orderedDB != nil {
		// closing a store that was never opened is fine here
		_ = orderedDB.Close()
	}
	if rpcStore != nil {
		return rpcStore.Close()
	}
	return nil
}
