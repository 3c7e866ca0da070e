package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theapemachine/toolbench/pkg/auth"
)

var (
	authService string

	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for one of the tool servers",
		Long:  longAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			var scopes []string

			switch authService {
			case "gmail":
				scopes = auth.GmailScopes
			case "calendar":
				scopes = auth.CalendarScopes
			case "drive":
				scopes = auth.DriveScopes
			default:
				return fmt.Errorf("unknown service %q, expected gmail, calendar, or drive", authService)
			}

			authenticator, err := auth.NewAuthenticator(
				configPath(viper.GetString("google.credentials")),
				configPath(viper.GetString("google.tokens."+authService)),
				scopes...,
			)
			if err != nil {
				return err
			}

			if err := authenticator.RunLocalFlow(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Stored %s token in %s\n",
				authService, configPath(viper.GetString("google.tokens."+authService)))
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().StringVarP(
		&authService, "service", "s", "", "Google service to authorize (gmail, calendar, drive)",
	)
	_ = authCmd.MarkFlagRequired("service")
}

/*
longAuth contains the detailed help text for the auth command.
*/
var longAuth = `
Auth runs the OAuth installed-app flow for a Google tool family. It prints
a consent URL, waits for the redirect on a local listener, and stores the
resulting token under the toolbench config directory. The client secret
file (credentials.json) must already be present there.
`
