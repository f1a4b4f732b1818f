package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hydrai/cli/internal/api"
	"github.com/hydrai/cli/internal/auth"
	"github.com/hydrai/cli/internal/config"
)

type contextKey string

const (
	// RestyClientKey carries a preconfigured *resty.Client in the root command context
	RestyClientKey contextKey = "resty-client"
	// StoreKey carries an auth.Store that replaces the configured credential store
	StoreKey contextKey = "credential-store"
)

var (
	cfgFile   string
	configErr error
	version   = "1.0.0" // This will be set during build

	// session is resolved by the root PersistentPreRunE for the running command
	session *runtime
)

type runtime struct {
	cfg    *config.Config
	store  auth.Store
	client *api.Client
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hydrai",
	Short: "HydrAI CLI - Flow meter consumption from your terminal",
	Long: `HydrAI CLI signs in to the HydrAI backend and shows your flow meters
("caudalímetros") together with their total water consumption.

Get started:
  hydrai auth login --username USER --password PASS
  hydrai meters
  hydrai browse`,
	SilenceUsage:      true,
	PersistentPreRunE: RootCmdPersistentPreRunE,
}

// RootCmdPersistentPreRunE resolves configuration, logging, the credential
// store and the API client shared by every subcommand.
func RootCmdPersistentPreRunE(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return errors.WithMessage(configErr, "failed to read config file")
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	setLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if cfg.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	cfg.Print()

	ctx := cmd.Root().Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, ok := ctx.Value(StoreKey).(auth.Store)
	if !ok {
		store, err = auth.Open(cfg.Store)
		if err != nil {
			return err
		}
	}

	rc, ok := ctx.Value(RestyClientKey).(*resty.Client)
	if !ok {
		rc = resty.New()
	}

	session = &runtime{
		cfg:    cfg,
		store:  store,
		client: api.NewWithClient(rc, cfg.BaseURL, cfg.Timeout, store),
	}
	return nil
}

// setLogger installs the default structured logger
func setLogger(level slog.Level, w io.Writer) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func initConfig() {
	configErr = nil

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".hydrai"))
		}
		viper.SetConfigName("hydrai")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = err
		}
		return
	}
	slog.Debug("using config file", "file", viper.ConfigFileUsed())
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./hydrai.yaml or ~/.hydrai/hydrai.yaml)")
	pf.StringP(config.KeyBaseURL, "u", api.DefaultBaseURL, "Base URL of the HydrAI API")
	pf.Duration(config.KeyTimeout, api.DefaultTimeout, "HTTP request timeout")
	pf.String(config.KeyStore, string(auth.StoreHome), "Credential storage: home, project, keyring")
	pf.StringP(config.KeyLogLevel, "l", "warn", fmt.Sprintf("Log level (%s)", config.LogLevels))
	pf.StringP(config.KeyOutput, "o", string(config.OutputTable), "Output format: table, json, yaml")
	pf.String(config.KeyUserID, "", "User ID sent with analysis requests")
	pf.Bool(config.KeyNoColor, false, "Disable colored output")

	for _, key := range []string{
		config.KeyBaseURL,
		config.KeyTimeout,
		config.KeyStore,
		config.KeyLogLevel,
		config.KeyOutput,
		config.KeyUserID,
		config.KeyNoColor,
	} {
		if err := viper.BindPFlag(key, pf.Lookup(key)); err != nil {
			slog.Error("unable to bind flag", "flag", key, "error", err)
		}
	}
	config.SetDefaults(viper.GetViper())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of HydrAI CLI",
		// Printing the version needs neither configuration nor credentials
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "HydrAI CLI v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
}
