package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/research"
	"github.com/WessleyAI/wessley-research/pkg/natsutil"
)

func newQueryCmd(c *cli) *cobra.Command {
	var timeRange string
	cmd := &cobra.Command{
		Use:   "query <question...>",
		Short: "Research a question",
		Example: `  research query "latest news about solar panels"
  research query --time-range month "price of gold in London"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.research(cmd, research.Request{Query: strings.Join(args, " "), TimeRange: timeRange})
		},
	}
	cmd.Flags().StringVarP(&timeRange, "time-range", "t", "", "restrict results to the last day, week, month or year")
	cmd.Flags().BoolVar(&c.remote, "remote", false, "send the request to a research worker over NATS")
	return cmd
}

func newRefineCmd(c *cli) *cobra.Command {
	var terms []string
	cmd := &cobra.Command{
		Use:     "refine <question...> --term <term>...",
		Short:   "Re-run a question with additional search terms",
		Example: `  research refine "solar panels" --term efficiency --term 2024`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.research(cmd, research.Request{Query: strings.Join(args, " "), Terms: terms})
		},
	}
	cmd.Flags().StringSliceVar(&terms, "term", nil, "additional search term (repeatable)")
	cmd.Flags().BoolVar(&c.remote, "remote", false, "send the request to a research worker over NATS")
	return cmd
}

func (c *cli) research(cmd *cobra.Command, req research.Request) error {
	var (
		resp research.Response
		err  error
	)
	if c.remote {
		resp, err = c.remoteResearch(cmd, req)
	} else {
		resp, err = c.localResearch(cmd, req)
	}
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "research failed (%s): %s\n", resp.Kind, resp.Error)
		return err
	}
	if c.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Report)
	}
	renderReport(cmd.OutOrStdout(), resp.Report)
	return nil
}

func (c *cli) localResearch(cmd *cobra.Command, req research.Request) (research.Response, error) {
	a, err := c.openApp(cmd)
	if err != nil {
		return research.Response{}, err
	}
	defer a.Close(context.Background())
	return a.Service.Handle(cmd.Context(), req), nil
}

func (c *cli) remoteResearch(cmd *cobra.Command, req research.Request) (research.Response, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return research.Response{}, err
	}
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("research-cli"))
	if err != nil {
		return research.Response{}, fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout+5*time.Second)
	defer cancel()
	resp, err := natsutil.Request[research.Request, research.Response](ctx, nc, cfg.NATS.Subject, req)
	if err != nil {
		return research.Response{}, fmt.Errorf("research worker: %w", err)
	}
	return resp, nil
}

func renderReport(w io.Writer, rep *domain.Report) {
	fmt.Fprintf(w, "Research: %s\n", rep.Query)
	fmt.Fprintf(w, "Report %s, generated %s\n\n", rep.ID, rep.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintln(w, "Summary")
	if rep.Summary == "" {
		fmt.Fprintln(w, "  (no summary)")
	} else {
		fmt.Fprintf(w, "  %s\n", rep.Summary)
	}

	if len(rep.KeyFindings) > 0 {
		fmt.Fprintln(w, "\nKey findings")
		for i, f := range rep.KeyFindings {
			fmt.Fprintf(w, "  %d. %s\n", i+1, f)
		}
	}

	if len(rep.Sources) > 0 {
		fmt.Fprintln(w, "\nSources")
		for i, s := range rep.Sources {
			fmt.Fprintf(w, "  %d. %s\n     %s\n     relevance %.2f, reliability %.2f\n", i+1, s.Title, s.URL, s.Relevance, s.Reliability)
		}
	}

	if len(rep.News) > 0 {
		fmt.Fprintln(w, "\nNews")
		for _, n := range rep.News {
			fmt.Fprintf(w, "  - %s (%s, %s)\n    %s\n", n.Title, n.Source, n.PublishedDate, n.URL)
		}
	}

	if len(rep.Contradictions) > 0 {
		fmt.Fprintln(w, "\nContradictions")
		for _, c := range rep.Contradictions {
			fmt.Fprintf(w, "  - %s\n", c.Description)
			for _, cl := range c.Claims {
				fmt.Fprintf(w, "    %s: %s\n", cl.URL, cl.Text)
			}
		}
	}
}
