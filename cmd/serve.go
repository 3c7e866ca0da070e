package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theapemachine/toolbench/pkg/auth"
	"github.com/theapemachine/toolbench/pkg/logging"
	"github.com/theapemachine/toolbench/pkg/service/sse"
	"github.com/theapemachine/toolbench/pkg/stores/history"
	"github.com/theapemachine/toolbench/pkg/tools"
	calendarsvc "github.com/theapemachine/toolbench/pkg/tools/calendar"
	drivesvc "github.com/theapemachine/toolbench/pkg/tools/drive"
	gmailsvc "github.com/theapemachine/toolbench/pkg/tools/gmail"
	jirasvc "github.com/theapemachine/toolbench/pkg/tools/jira"
	videosvc "github.com/theapemachine/toolbench/pkg/tools/video"
)

var (
	serveTool string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run one of the MCP tool servers over SSE",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(
				viper.GetString("log.level"),
				configPath(viper.GetString("log.file")),
			); err != nil {
				return err
			}
			defer logging.Close()

			broker := sse.NewMCPBroker(serveTool+"-tools", "1.0.0")

			if err := registerTool(cmd, broker); err != nil {
				return err
			}

			addr := fmt.Sprintf(
				"%s:%d",
				viper.GetString("serve.host"),
				viper.GetInt("serve.ports."+serveTool),
			)

			log.Info("starting MCP server", "tool", serveTool, "addr", addr)
			return broker.Start(addr)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(
		&serveTool, "tool", "t", "", "tool server to run (gmail, calendar, drive, jira, browser, video)",
	)
	_ = serveCmd.MarkFlagRequired("tool")
}

/*
registerTool builds the service layer for the selected tool family and
registers its handlers on the broker's MCP server.
*/
func registerTool(cmd *cobra.Command, broker *sse.MCPBroker) error {
	ctx := cmd.Context()

	switch serveTool {
	case "gmail":
		authenticator, client, err := googleClient(cmd, "gmail", auth.GmailScopes)
		if err != nil {
			return err
		}

		svc, err := gmailsvc.NewService(ctx, client)
		if err != nil {
			return err
		}

		store := history.NewStore(configPath(viper.GetString("gmail.history_file")))
		tools.NewGmailTool(svc, authenticator, store).Register(broker.Server())

	case "calendar":
		authenticator, client, err := googleClient(cmd, "calendar", auth.CalendarScopes)
		if err != nil {
			return err
		}

		svc, err := calendarsvc.NewService(ctx, client, viper.GetString("google.timezone"))
		if err != nil {
			return err
		}

		tools.NewCalendarTool(svc, authenticator).Register(broker.Server())

	case "drive":
		authenticator, client, err := googleClient(cmd, "drive", auth.DriveScopes)
		if err != nil {
			return err
		}

		svc, err := drivesvc.NewService(ctx, client)
		if err != nil {
			return err
		}

		tools.NewDriveTool(svc, authenticator).Register(broker.Server())

	case "jira":
		cfg, err := jirasvc.ConfigFromEnv()
		if err != nil {
			return err
		}

		svc, err := jirasvc.NewService(cfg)
		if err != nil {
			return err
		}

		tools.NewJiraTool(svc).Register(broker.Server())

	case "browser":
		tools.NewBrowserTool().Register(broker.Server())

	case "video":
		svc := videosvc.NewService(
			os.Getenv("OPENAI_API_KEY"),
			viper.GetString("models.summary"),
		)
		tools.NewVideoTool(svc).Register(broker.Server())

	default:
		return fmt.Errorf("unknown tool %q, expected gmail, calendar, drive, jira, browser, or video", serveTool)
	}

	return nil
}

/*
googleClient builds the authenticator for one Google tool family and
returns an authorized HTTP client. Serving a Google tool requires a stored
token; run `toolbench auth --service <name>` first.
*/
func googleClient(cmd *cobra.Command, service string, scopes []string) (*auth.Authenticator, *http.Client, error) {
	authenticator, err := auth.NewAuthenticator(
		configPath(viper.GetString("google.credentials")),
		configPath(viper.GetString("google.tokens."+service)),
		scopes...,
	)
	if err != nil {
		return nil, nil, err
	}

	client, err := authenticator.Client(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf(
			"no usable %s token (%w), run `toolbench auth --service %s` first",
			service, err, service,
		)
	}

	return authenticator, client, nil
}

/*
longServe contains the detailed help text for the serve command.
*/
var longServe = `
Serve runs a single MCP tool server over SSE. Each tool family listens on
its own port (configurable under serve.ports in the config file):

  toolbench serve --tool gmail
  toolbench serve --tool calendar
  toolbench serve --tool drive
  toolbench serve --tool jira
  toolbench serve --tool browser
  toolbench serve --tool video

Google tools require a stored OAuth token; mint one with
` + "`toolbench auth --service <gmail|calendar|drive>`" + `.
`
