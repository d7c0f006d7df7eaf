package cmd

import (
	"fmt"

	"github.com/mixtools/tcnet/config"
	"github.com/mixtools/tcnet/tools"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"

	showVersion bool
	debug       bool
	configFile  string
	ifaceFlag   string
	nodeName    string

	rootCmd = &cobra.Command{
		Use:   "tcnet",
		Short: "A TCNet client for DJ equipment telemetry",
		Args:  cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			SetLogLevel()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if showVersion {
				fmt.Println(Version)
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("failed to execute")
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", tools.GetenvBool(config.EnvPrefix+"DEBUG"), "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", tools.GetenvDefault(config.EnvPrefix+"CONFIG", ""), "path of config file")
	rootCmd.PersistentFlags().StringVarP(&ifaceFlag, "interface", "i", "", "broadcast interface name")
	rootCmd.PersistentFlags().StringVar(&nodeName, "node-name", "", "advertised node name")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version information")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(requestCmd)
}

// SetLogLevel sets the global log level based on debug flag.
// Call this after flags are parsed.
func SetLogLevel() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadConfig builds the session configuration from the config file and
// overriding flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if ifaceFlag != "" {
		cfg.BroadcastInterface = ifaceFlag
	}
	if nodeName != "" {
		cfg.NodeName = nodeName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
