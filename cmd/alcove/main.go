// Package main - alcove command line interface
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alcovedb/alcove"
	"github.com/alcovedb/alcove/cloudsync"
	"github.com/alcovedb/alcove/medium"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/scheduler"
	"github.com/alcovedb/alcove/sealer"
	"github.com/alcovedb/alcove/vault"
	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "alcove",
		Short:         "Embedded encrypted wellness data vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", "alcove.db", "path to the local vault database file")
	flags.String("remote-uri", "", "MongoDB connection string for cloud sync")
	flags.String("remote-db", "alcove", "remote database name")
	flags.String("passphrase", "", "passphrase keying the sync field cipher")
	flags.String("salt", "alcove-sync", "key derivation salt for the sync field cipher")

	viper.SetEnvPrefix("ALCOVE")
	viper.AutomaticEnv()
	for _, name := range []string{"db", "remote-uri", "remote-db", "passphrase", "salt"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			log.WithError(err).Fatalf("Failed to bind flag '%s'", name)
		}
	}

	rootCmd.AddCommand(newSaveCmd(), newAdvicesCmd(), newPrefsCmd(), newSyncCmd())
	return rootCmd
}

// openVault open the SQL-backed vault named by configuration
func openVault(ctx context.Context) (vault.Vault, error) {
	dataVault, err := alcove.NewLocalVault(
		ctx, medium.GetSqliteDialector(viper.GetString("db")), logger.Error,
	)
	if err != nil {
		return nil, err
	}
	if !dataVault.Ready() {
		return nil, fmt.Errorf("vault failed to initialize, state %s", dataVault.State())
	}
	return dataVault, nil
}

func newSaveCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "save [payload JSON]",
		Short: "Seal and store one logged event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if err := json.Unmarshal([]byte(args[0]), &payload); err != nil {
				return fmt.Errorf("payload is not valid JSON [%w]", err)
			}

			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			dataVault.SaveEncryptedData(ctx, payload, models.LogCategoryENUMType(category))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", string(models.LogCategoryMood),
		"log category: mood, chat, or health")
	return cmd
}

func newAdvicesCmd() *cobra.Command {
	advicesCmd := &cobra.Command{
		Use:   "advices",
		Short: "List recorded doctor advices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			for _, advice := range dataVault.GetDoctorAdvices(ctx) {
				fmt.Printf(
					"%s [%s] %s: %s\n",
					advice.Timestamp.Format("2006-01-02 15:04"),
					advice.Category, advice.DoctorID, advice.Advice,
				)
			}
			return nil
		},
	}

	var doctorID, category string
	addCmd := &cobra.Command{
		Use:   "add [advice text]",
		Short: "Append one doctor advice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			dataVault.AddDoctorAdvice(ctx, doctorID, args[0], category)
			return nil
		},
	}
	addCmd.Flags().StringVar(&doctorID, "doctor", "", "authoring doctor ID")
	addCmd.Flags().StringVar(&category, "category", "general", "advice category")
	_ = addCmd.MarkFlagRequired("doctor")

	advicesCmd.AddCommand(addCmd)
	return advicesCmd
}

func newPrefsCmd() *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the current sync preference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			fmt.Println(dataVault.SyncPreference())
			return nil
		},
	}

	setSyncCmd := &cobra.Command{
		Use:   "set-sync [local|daily|weekly]",
		Short: "Update the sync preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			dataVault.SetSyncPreference(ctx, models.SyncPreferenceENUMType(args[0]))
			return nil
		},
	}

	prefsCmd.AddCommand(setSyncCmd)
	return prefsCmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass toward the remote store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			remoteURI := viper.GetString("remote-uri")
			if remoteURI == "" {
				return fmt.Errorf("a remote URI is required for sync")
			}

			cipher, err := sealer.NewAESGCMFieldCipher(
				[]byte(viper.GetString("passphrase")), []byte(viper.GetString("salt")),
			)
			if err != nil {
				return fmt.Errorf("failed to prepare sync field cipher [%w]", err)
			}

			ctx := cmd.Context()
			dataVault, err := openVault(ctx)
			if err != nil {
				return err
			}
			defer dataVault.Close(ctx)

			remote := cloudsync.NewMongoRemoteStore(remoteURI, viper.GetString("remote-db"))
			cloud := cloudsync.NewCloudSync(remote, cipher)
			defer cloud.Disconnect(ctx)

			if !scheduler.NewSyncScheduler(dataVault, cloud).RunNow(ctx) {
				return fmt.Errorf("sync pass failed")
			}
			return nil
		},
	}
}
