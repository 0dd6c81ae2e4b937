package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yoockh/interviewer/config"
	"github.com/yoockh/interviewer/internal/bootstrap"
	"github.com/yoockh/interviewer/internal/services"
)

func newRatingCmd(v *viper.Viper) *cobra.Command {
	rating := &cobra.Command{
		Use:   "rating",
		Short: "Manage interview ratings",
	}

	retry := &cobra.Command{
		Use:   "retry",
		Short: "Re-rate a completed interview from its stored transcript",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionID := v.GetString("session-id")
			if sessionID == "" {
				return errors.New("--session-id is required")
			}

			log := newLogger(v)
			cfg, err := config.LoadApp()
			if err != nil {
				return err
			}
			if err := config.InitPostgres(); err != nil {
				return err
			}
			provider, err := bootstrap.LLM(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer provider.Close()

			repos := bootstrap.NewRepos(config.PostgresDB)
			ratings := services.NewRatingService(provider, repos.Interviews, repos.Messages, log, services.RatingConfig{
				MaxAttempts: v.GetInt("attempts"),
				Backoff:     v.GetDuration("backoff"),
			})
			if err := ratings.Retry(cmd.Context(), sessionID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rated session %s\n", sessionID)
			return nil
		},
	}

	f := retry.Flags()
	f.String("session-id", "", "session of the completed interview")
	f.Int("attempts", 3, "completion attempts before the failure placeholder is written")
	f.Duration("backoff", defaultRetryBackoff, "wait between attempts")
	for _, name := range []string{"session-id", "attempts", "backoff"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}

	rating.AddCommand(retry)
	return rating
}
