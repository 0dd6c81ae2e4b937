package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yoockh/interviewer/internal/logger"
)

const app = "interviewctl"

// Execute runs the command line with a fresh viper instance.
func Execute() error {
	return newRootCmd(viper.New()).Execute()
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          app,
		Short:        "interviewctl administers the interviewer transcript store",
		SilenceUsage: true,
	}

	// flags fall back to environment variables: --link-secret <- LINK_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	root.PersistentFlags().String("log-format", "text", "log format: text or json")
	_ = v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newMigrateCmd(v), newLinkCmd(v), newRatingCmd(v))
	return root
}

func newLogger(v *viper.Viper) *logrus.Logger {
	level := "info"
	if v.GetBool("debug") {
		level = "debug"
	}
	return logger.NewWithOutput(os.Stderr, level, v.GetString("log-format"))
}
