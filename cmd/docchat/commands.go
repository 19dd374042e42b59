package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmaharana/docchat/internal/config"
	"github.com/dmaharana/docchat/internal/embedding"
	"github.com/dmaharana/docchat/internal/helper"
	"github.com/dmaharana/docchat/internal/llmservice"
	"github.com/dmaharana/docchat/internal/models"
	"github.com/dmaharana/docchat/internal/rag"
	"github.com/dmaharana/docchat/internal/vectorstore"
)

// newPipeline wires config, embedder, generator and store into a RAG
// instance. Used by the commands that talk to the models.
func newPipeline(cmd *cobra.Command) (*rag.RAG, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	cached, err := embedding.NewCached(embedder, cfg.RAG.EmbedCacheSize)
	if err != nil {
		return nil, err
	}

	generator, err := llmservice.NewClient(&cfg.InferenceLLM)
	if err != nil {
		return nil, err
	}

	store := vectorstore.NewManager(cfg.RAG.IndexDir, cfg.RAG.Collection)
	return rag.New(cmd.Context(), cfg, store, cached, generator)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <files...>",
		Short: "Add documents to the corpus",
		Long: `Chunk, embed and index one or more PDF or text files.
A file that cannot be read fails the whole batch; the existing index
is left untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			count, err := pipeline.Ingest(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("ingesting documents: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d file(s)\n", count, len(args))
			return nil
		},
	}
}

func printAnswer(cmd *cobra.Command, ans models.Answer) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", ans.Answer)
	fmt.Fprintf(out, "Confidence: %.1f%%\n", ans.Confidence*100)
	fmt.Fprintf(out, "Sources:\n%s\n", ans.Sources)
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question against the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			printAnswer(cmd, pipeline.Ask(cmd.Context(), args[0]))
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop",
		Long: `Start an interactive session. Commands inside the session:
  /reset   clear the conversation memory
  /history print the conversation so far
  /quit    exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintln(out, "docchat ready. Type a question, or /quit to exit.")
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/quit" || line == "/exit":
					return nil
				case line == "/reset":
					pipeline.ResetConversation()
					fmt.Fprintln(out, "Conversation cleared.")
					continue
				case line == "/history":
					for _, turn := range pipeline.History() {
						fmt.Fprintf(out, "%s: %s\n", turn.Role, turn.Content)
					}
					continue
				}
				printAnswer(cmd, pipeline.Ask(cmd.Context(), line))
			}
			return scanner.Err()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus state and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			store := vectorstore.NewManager(cfg.RAG.IndexDir, cfg.RAG.Collection)

			fmt.Fprintf(cmd.OutOrStdout(), "Corpus exists: %t\n", store.Exists())
			helper.PrettyPrint(cfg.RAG)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the entire corpus index",
		Long:  "Remove all persisted index state. Deleting an absent index is a no-op.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			store := vectorstore.NewManager(cfg.RAG.IndexDir, cfg.RAG.Collection)
			if err := store.Delete(); err != nil {
				return fmt.Errorf("deleting corpus: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Corpus deleted.")
			return nil
		},
	}
}
