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

func newLinkCmd(v *viper.Viper) *cobra.Command {
	link := &cobra.Command{
		Use:   "link",
		Short: "Manage candidate interview links",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an interview record and print the candidate link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := v.GetString("employer-token")
			if token == "" {
				return errors.New("--employer-token (or EMPLOYER_TOKEN) is required")
			}
			secret := v.GetString("link-secret")
			if len(secret) < 32 {
				return errors.New("--link-secret (or LINK_SECRET) of at least 32 characters is required")
			}

			log := newLogger(v)
			if err := config.InitPostgres(); err != nil {
				return err
			}
			repos := bootstrap.NewRepos(config.PostgresDB)
			links := services.NewLinkService(repos.Employers, repos.Roles, repos.Interviews, secret, v.GetDuration("link-ttl"), v.GetString("public-base-url"))

			out, err := links.Create(cmd.Context(), token, services.LinkRequest{
				RoleID:         v.GetString("role-id"),
				CandidateEmail: v.GetString("email"),
				Language:       v.GetString("language"),
			})
			if err != nil {
				return err
			}
			log.WithField("session_id", out.SessionID).Debug("link created")

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session:    %s\ninterview:  %s\nexpires at: %s\nurl:        %s\n",
				out.SessionID, out.InterviewID, out.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"), out.URL)
			return nil
		},
	}

	f := create.Flags()
	f.String("employer-token", "", "employer token owning the interview")
	f.String("role-id", "", "role the interview is for")
	f.String("email", "", "candidate email")
	f.String("language", "en", "interview language: en or zh")
	f.String("link-secret", "", "HS256 secret used to sign access tokens")
	f.Duration("link-ttl", defaultLinkTTL, "access token lifetime")
	f.String("public-base-url", "http://localhost:3000", "candidate frontend base URL")
	for _, name := range []string{"employer-token", "role-id", "email", "language", "link-secret", "link-ttl", "public-base-url"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}

	link.AddCommand(create)
	return link
}
