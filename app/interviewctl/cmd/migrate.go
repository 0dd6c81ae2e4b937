package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yoockh/interviewer/config"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the transcript store tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger(v)

			if err := config.InitPostgres(); err != nil {
				return err
			}
			if err := pgrepo.AutoMigrate(config.PostgresDB); err != nil {
				return err
			}
			log.Info("postgres tables migrated")

			if !v.GetBool("mongo") {
				return nil
			}
			if err := config.InitMongo(); err != nil {
				return err
			}
			defer func() { _ = config.MongoClient.Disconnect(cmd.Context()) }()
			if err := config.EnsureMongoIndexes(v.GetDuration("session-ttl")); err != nil {
				return err
			}
			log.Info("mongo session indexes ensured")
			return nil
		},
	}

	c.Flags().Bool("mongo", false, "also create the mongo session state indexes")
	c.Flags().Duration("session-ttl", 72*time.Hour, "expire mongo session states idle for this long; 0 keeps them")
	_ = v.BindPFlag("mongo", c.Flags().Lookup("mongo"))
	_ = v.BindPFlag("session-ttl", c.Flags().Lookup("session-ttl"))
	return c
}
