package cmd

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hydrai/cli/internal/config"
	"github.com/hydrai/cli/internal/tui"
)

// metersCmd lists the flow meters of the logged in user
var metersCmd = &cobra.Command{
	Use:     "meters",
	Aliases: []string{"caudalimetros", "ls"},
	Short:   "List flow meters and their total consumption",
	Long: `List every flow meter ("caudalímetro") visible to your account together with the
sum of its measured consumption.

Examples:
  hydrai meters
  hydrai meters --output json
  hydrai caudalimetros -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		meters, err := session.client.ListFlowMeters(cmd.Context())
		if err != nil {
			return errors.WithMessage(err, "failed to get flow meters (run the command again to retry)")
		}

		if session.cfg.Output == config.OutputTable {
			return renderMeters(cmd.OutOrStdout(), meters)
		}
		return printOutput(cmd.OutOrStdout(), meterViews(meters), session.cfg.Output)
	},
}

// analysisCmd requests consumption recommendations
var analysisCmd = &cobra.Command{
	Use:     "analysis",
	Aliases: []string{"analisis", "recommendations"},
	Short:   "Request consumption recommendations",
	Long: `Ask the backend to analyse the consumption of a user and print its recommendations.

Examples:
  hydrai analysis --user-id 665f1c2e9b1d
  HYDRAI_USER_ID=665f1c2e9b1d hydrai analysis -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := session.cfg.UserID
		if userID == "" {
			return fmt.Errorf("--user-id is required")
		}

		result, err := session.client.RequestAnalysis(cmd.Context(), userID)
		if err != nil {
			return errors.WithMessage(err, "failed to get recommendations")
		}

		if session.cfg.Output == config.OutputYAML {
			var data interface{}
			if err := json.Unmarshal(result, &data); err != nil {
				return errors.Wrap(err, "analysis result is not JSON")
			}
			return printOutput(cmd.OutOrStdout(), data, config.OutputYAML)
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

// browseCmd opens the interactive list screen
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse flow meters interactively",
	Long: `Open an interactive list of flow meters.

Keys:
  ↑/↓  move
  r    refresh the list
  a    request recommendations for --user-id
  q    quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(cmd.Context(), session.client, session.cfg.UserID,
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
			tea.WithAltScreen(),
		)
	},
}

func init() {
	rootCmd.AddCommand(metersCmd, analysisCmd, browseCmd)
}
