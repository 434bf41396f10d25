// internal/cli/root.go
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"autoease/internal/app"
	"autoease/internal/common/config"
	"autoease/internal/common/logger"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

type options struct {
	configPath string
	jsonOutput bool
	verbose    bool
}

func NewRoot() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "autoease",
		Short:         "Car repair booking toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml lookup)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of a table")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(newStationsCmd(opts))
	cmd.AddCommand(newRankCmd(opts))
	cmd.AddCommand(newSlotsCmd(opts))
	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (o *options) logger() logger.Logger {
	if !o.verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewZapAdapter(logger.NewWithOutput("debug", "console", "stderr"))
}

func (o *options) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

// runtime builds the domain components; the caller must Close them.
func (o *options) runtime(ctx context.Context) (*app.Runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, o.logger())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
