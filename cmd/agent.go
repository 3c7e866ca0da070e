package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theapemachine/toolbench/pkg/agent"
	"github.com/theapemachine/toolbench/pkg/logging"
)

var (
	agentTool        string
	agentProvider    string
	agentModel       string
	agentInteractive bool

	agentCmd = &cobra.Command{
		Use:   "agent [query]",
		Short: "Run an LLM agent against one of the tool servers",
		Long:  longAgent,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(
				viper.GetString("log.level"),
				configPath(viper.GetString("log.file")),
			); err != nil {
				return err
			}
			defer logging.Close()

			if !agentInteractive && len(args) == 0 {
				return fmt.Errorf("provide a query, or use --interactive")
			}

			endpoint := viper.GetString("endpoints." + agentTool)
			if endpoint == "" {
				return fmt.Errorf("unknown tool %q, expected gmail, calendar, drive, jira, browser, or video", agentTool)
			}

			registry, err := agent.NewRemoteRegistry(cmd.Context(), endpoint)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
			}
			defer registry.Close()

			provider, err := buildProvider()
			if err != nil {
				return err
			}

			runner := agent.New(
				provider,
				registry,
				agent.WithSystemPrompt(viper.GetString("agent."+agentTool+".system")),
				agent.WithMaxIterations(viper.GetInt("agent.max_iterations")),
			)

			log.Info("agent ready", "tool", agentTool, "endpoint", endpoint, "tools", len(registry.Tools()))

			if agentInteractive {
				return runInteractive(cmd, runner)
			}

			answer, err := runner.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(answer)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().StringVarP(
		&agentTool, "tool", "t", "", "tool server to connect to (gmail, calendar, drive, jira, browser, video)",
	)
	agentCmd.Flags().StringVarP(
		&agentProvider, "provider", "p", "", "LLM provider (openai or anthropic, default from config)",
	)
	agentCmd.Flags().StringVarP(
		&agentModel, "model", "m", "", "model override for the selected provider",
	)
	agentCmd.Flags().BoolVarP(
		&agentInteractive, "interactive", "i", false, "start an interactive session",
	)
	_ = agentCmd.MarkFlagRequired("tool")
}

/*
buildProvider selects the chat completion provider from the flag or the
config default, reading the API key from the environment.
*/
func buildProvider() (agent.Provider, error) {
	name := agentProvider
	if name == "" {
		name = viper.GetString("agent.provider")
	}

	switch name {
	case "openai":
		model := agentModel
		if model == "" {
			model = viper.GetString("models.openai")
		}
		return agent.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), model), nil
	case "anthropic":
		model := agentModel
		if model == "" {
			model = viper.GetString("models.anthropic")
		}
		return agent.NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"), model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, expected openai or anthropic", name)
	}
}

/*
runInteractive reads queries from stdin until EOF or an exit command,
running each through the agent loop.
*/
func runInteractive(cmd *cobra.Command, runner *agent.Agent) error {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("Connected to the %s tools. Type 'exit' to quit.\n", agentTool)

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}

		if query == "exit" || query == "quit" {
			return nil
		}

		answer, err := runner.Run(cmd.Context(), query)
		if err != nil {
			log.Error("agent run failed", "error", err)
			continue
		}

		fmt.Println(answer)
	}
}

/*
longAgent contains the detailed help text for the agent command.
*/
var longAgent = `
Agent connects to one of the running tool servers over SSE, hands its tool
catalog to an LLM, and loops between completions and tool executions until
the model produces a final answer:

  toolbench agent --tool gmail "do I have unread mail from Sarah?"
  toolbench agent --tool jira "analyze PROJ-123"
  toolbench agent --tool browser --interactive

The provider defaults to the agent.provider config value; override it with
--provider openai|anthropic and --model.
`
