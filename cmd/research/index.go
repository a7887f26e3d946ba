package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/engine/ingest"
	"github.com/WessleyAI/wessley-research/engine/sources"
	"github.com/WessleyAI/wessley-research/pkg/fn"
	"github.com/WessleyAI/wessley-research/pkg/natsutil"
)

func newIndexCmd(c *cli) *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "index <url>...",
		Short: "Fetch pages and add them to the knowledge base",
		Long: `index fetches each URL and runs it through the indexing pipeline
(validate, chunk, embed, store) into Qdrant. With --publish the pages are
queued on NATS for research workers to index instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, urls []string) error {
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			ctx := cmd.Context()

			if publish {
				nc, err := nats.Connect(a.Config.NATS.URL, nats.Name("research-index"))
				if err != nil {
					return fmt.Errorf("connect nats: %w", err)
				}
				defer nc.Close()
				return publishPages(ctx, a.Sources, nc, urls, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			deps, ok := a.IngestDeps()
			if !ok {
				return fmt.Errorf("knowledge base not configured (set RESEARCH_QDRANT_ADDR)")
			}
			if err := a.EnsureKnowledgeBase(ctx); err != nil {
				return err
			}
			return indexPages(ctx, a.Sources, ingest.NewPipeline(deps), urls, a.Config.Concurrency,
				cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "queue pages on NATS instead of indexing locally")
	return cmd
}

// indexPages fetches and indexes urls concurrently and reports each outcome.
func indexPages(ctx context.Context, fetcher sources.DocumentFetcher, pipeline fn.Stage[domain.Document, string],
	urls []string, workers int, out, errOut io.Writer) error {
	results := fn.ParMapCtx(ctx, urls, workers, func(ctx context.Context, url string) fn.Result[string] {
		doc, err := fetcher.FetchDocument(ctx, url)
		if err != nil {
			return fn.Err[string](err)
		}
		return pipeline(ctx, doc)
	})
	return report(urls, results, "indexed", out, errOut)
}

// publishPages fetches urls and queues them on the index subject.
func publishPages(ctx context.Context, fetcher sources.DocumentFetcher, nc *nats.Conn, urls []string, out, errOut io.Writer) error {
	results := make([]fn.Result[string], len(urls))
	for i, url := range urls {
		doc, err := fetcher.FetchDocument(ctx, url)
		if err == nil {
			err = natsutil.Publish(ctx, nc, ingest.IndexSubject, doc)
		}
		results[i] = fn.FromPair(url, err)
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return report(urls, results, "queued", out, errOut)
}

func report(urls []string, results []fn.Result[string], verb string, out, errOut io.Writer) error {
	failed := 0
	for i, r := range results {
		if err := r.Error(); err != nil {
			failed++
			fmt.Fprintf(errOut, "failed %s: %v\n", urls[i], err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", verb, urls[i])
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(urls))
	}
	return nil
}
