// Command ingest loads vendor correspondence into the Postgres knowledge
// base. Without -file it loads the built-in demo corpus; with -loop it keeps
// re-ingesting on an interval until interrupted, so an externally refreshed
// corpus file is picked up without restarting.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	knowledgex "github.com/kritsada/procure-agent/agent/knowledge"
	llmx "github.com/kritsada/procure-agent/agent/llm"
	configx "github.com/kritsada/procure-agent/pkg/config"
	_ "github.com/kritsada/procure-agent/pkg/logger/autoload"
	openrouterx "github.com/kritsada/procure-agent/pkg/openrouter"
)

func main() {
	filePath := flag.String("file", "", "JSON-lines file of documents: {\"text\": ..., \"metadata\": {...}}")
	loop := flag.Bool("loop", false, "keep re-ingesting on an interval until interrupted")
	interval := flag.Duration("interval", 5*time.Minute, "re-ingest interval when -loop is set")

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	client := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeQuery))
	if client == nil {
		log.Fatal().Msg("an api key is required to compute embeddings")
	}

	embedCfg := configx.MustNew[knowledgex.EmbedderConfig]("EMBEDDING")
	embedder, err := knowledgex.NewOpenAIEmbedder(client, *embedCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build embedder")
	}

	pgCfg := configx.MustNew[knowledgex.PostgresConfig]("POSTGRES")
	store, err := knowledgex.NewBunStore(*pgCfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("build postgres knowledge store")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure knowledge schema")
	}

	ingest := func(ctx context.Context) error {
		docs := knowledgex.DemoDocuments()
		if *filePath != "" {
			var err error
			docs, err = readDocuments(*filePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", *filePath, err)
			}
		}
		if err := knowledgex.Seed(ctx, store, docs); err != nil {
			return err
		}
		log.Info().Int("count", len(docs)).Msg("documents ingested")
		return nil
	}

	if err := ingest(ctx); err != nil {
		log.Fatal().Err(err).Msg("ingest documents")
	}
	if !*loop {
		return
	}

	log.Info().Dur("interval", *interval).Msg("re-ingesting until interrupted")
	if err := runEvery(ctx, *interval, ingest); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("ingest loop")
	}
}

// runEvery re-runs fn on every tick until ctx is cancelled. A failing pass is
// logged and retried on the next tick rather than aborting the loop.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Warn().Err(err).Msg("re-ingest failed, will retry")
			}
		}
	}
}

func readDocuments(path string) ([]knowledgex.SeedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []knowledgex.SeedDocument
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var doc struct {
			Text     string            `json:"text"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if doc.Text == "" {
			return nil, fmt.Errorf("line %d: empty text", line)
		}
		docs = append(docs, knowledgex.SeedDocument{Text: doc.Text, Metadata: doc.Metadata})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
