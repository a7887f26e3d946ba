// Command research runs research queries from the terminal, locally or
// through a research worker over NATS, and indexes pages into the
// knowledge base.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/wessley-research/internal/app"
	"github.com/WessleyAI/wessley-research/pkg/config"
)

// cli holds flags shared by every subcommand.
type cli struct {
	configPath string
	jsonOut    bool
	remote     bool

	// open builds the App; tests replace it.
	open func(ctx context.Context, cfg *config.Config, logs io.Writer) (*app.App, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cli{open: app.New}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "research",
		Short: "Research a question across the web, news, and the knowledge base",
		Long: `research searches the web and the indexed knowledge base, fetches and
scores the best pages, checks them for contradictions, and prints a ranked
report.

Configuration comes from an optional YAML file and RESEARCH_* environment
variables, e.g. RESEARCH_SERPAPI_KEY and RESEARCH_QDRANT_ADDR.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("RESEARCH_CONFIG"), "config file (YAML)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(newQueryCmd(c), newRefineCmd(c), newIndexCmd(c))
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openApp loads configuration and builds the App, logging to stderr so
// stdout stays clean for the report.
func (c *cli) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.open(cmd.Context(), cfg, cmd.ErrOrStderr())
}
