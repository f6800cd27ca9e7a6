// Command traj propagates spacecraft trajectories and fits two-line elements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChristopherRabotin/traj"
)

var (
	cfgDir   string
	logLevel string
	conf     traj.Config
	logger   kitlog.Logger
	settings = traj.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "traj",
	Short: "Spacecraft trajectory propagation",
	Long: `traj numerically propagates spacecraft under gravity, third body, drag and
solar radiation pressure forces, executing impulsive maneuvers along the way.

Settings are read from conf.{toml,yaml} in the --config directory, and may be
overridden with TRAJ_ prefixed environment variables (e.g. TRAJ_PROPAGATION_STEP).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgDir != "" {
			settings.SetConfigName("conf")
			settings.AddConfigPath(cfgDir)
			if err := settings.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return err
				}
			}
		}
		var err error
		if conf, err = traj.ConfigFromViper(settings); err != nil {
			return err
		}
		logger, err = traj.NewLogger(os.Stderr, conf.LogLevel)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", os.Getenv("TRAJ_CONFIG"), "directory of conf.toml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error or none")
	settings.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
