package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/pkg/zlog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type ingestCommander struct {
	collection string
	file       string
	text       string
	source     string
}

func newIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk and store text in a collection",
		Long: `Chunk and store text in a collection. Text comes from --text, --file or stdin.
A numeric collection such as 2023 maps to the yearly report collection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cmder.collection, "collection", "", "Collection name or year (default collection when empty)")
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read text from file")
	cmd.Flags().StringVarP(&cmder.text, "text", "t", "", "Text to ingest")
	cmd.Flags().StringVar(&cmder.source, "source", "cli", "Source tag stored in chunk metadata")
	return cmd
}

func (c *ingestCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	text, err := c.readText(in)
	if err != nil {
		return err
	}
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	collection := service.ScopeToCollection(c.collection, app.Conf.VectorConfig.YearCollectionFormat)
	res, err := app.Ingest.IngestText(ctx, collection, text, c.source)
	if err != nil {
		return err
	}
	zlog.Info("ingest done", zap.String("collection", res.Collection), zap.Int("ingested", res.Ingested))
	fmt.Fprintf(out, "Ingested %d chunks into %s\n", res.Ingested, res.Collection)
	return nil
}

func (c *ingestCommander) readText(in io.Reader) (string, error) {
	switch {
	case strings.TrimSpace(c.text) != "":
		return c.text, nil
	case c.file != "":
		raw, err := os.ReadFile(c.file)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		raw, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(raw)) == "" {
			return "", errors.New("no text provided: use --text, --file or stdin")
		}
		return string(raw), nil
	}
}

type searchCommander struct {
	collection string
	query      string
	k          int
	answer     bool
}

func newSearchCmd() *cobra.Command {
	cmder := &searchCommander{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Similarity search over a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cmder.collection, "collection", "", "Collection name or year")
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Query text")
	cmd.Flags().IntVarP(&cmder.k, "k", "k", 3, "Number of results")
	cmd.Flags().BoolVar(&cmder.answer, "answer", false, "Also ask the chat model to answer from the results")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func (c *searchCommander) run(ctx context.Context, out io.Writer) error {
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	collection := service.ScopeToCollection(c.collection, app.Conf.VectorConfig.YearCollectionFormat)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if c.answer {
		res, err := app.Answer.Answer(ctx, collection, c.query, c.k)
		if err != nil {
			return err
		}
		return enc.Encode(res)
	}
	results, err := app.Search.Search(ctx, collection, c.query, c.k)
	if err != nil {
		return err
	}
	return enc.Encode(results)
}
