package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	purchasex "github.com/kritsada/procure-agent/agent/agents/purchase"
	queryx "github.com/kritsada/procure-agent/agent/agents/query"
	classifyx "github.com/kritsada/procure-agent/agent/classify"
	contractx "github.com/kritsada/procure-agent/agent/contract"
	coordinatorx "github.com/kritsada/procure-agent/agent/coordinator"
	knowledgex "github.com/kritsada/procure-agent/agent/knowledge"
	llmx "github.com/kritsada/procure-agent/agent/llm"
	promptx "github.com/kritsada/procure-agent/agent/prompt"
	statex "github.com/kritsada/procure-agent/agent/state"
	configx "github.com/kritsada/procure-agent/pkg/config"
	_ "github.com/kritsada/procure-agent/pkg/logger/autoload"
	mailgwx "github.com/kritsada/procure-agent/pkg/mailgw"
	openrouterx "github.com/kritsada/procure-agent/pkg/openrouter"
	serverx "github.com/kritsada/procure-agent/server"
)

type AppConfig struct {
	Addr             string `envconfig:"ADDR" split_words:"true" default:":8080"`
	SessionBackend   string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	KnowledgeBackend string `envconfig:"KNOWLEDGE_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")

	store := buildSessionStore(appCfg)
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	prompts := promptx.LoadPromptSet()

	classifier := buildClassifier(ctx, *llmCfg, prompts)
	informer := buildInformer(ctx, appCfg, *llmCfg, prompts)
	purchaser := buildPurchaser()

	coordinator, err := coordinatorx.New(store, classifier, informer, purchaser)
	if err != nil {
		log.Fatal().Err(err).Msg("build coordinator")
	}

	handler, err := serverx.New(coordinator)
	if err != nil {
		log.Fatal().Err(err).Msg("build http handler")
	}

	srv := &http.Server{
		Addr:              appCfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", appCfg.Addr).Msg("procure agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func buildSessionStore(appCfg *AppConfig) statex.Store {
	switch appCfg.SessionBackend {
	case "redis":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build redis session store")
		}
		return store
	default:
		return statex.NewMemoryStore()
	}
}

func buildClassifier(ctx context.Context, llmCfg llmx.Config, prompts promptx.PromptSet) contractx.Classifier {
	if !llmCfg.Enabled() {
		log.Info().Msg("no llm configured, using rule classifier")
		return classifyx.NewRules()
	}

	modelCfg := llmCfg.OpenRouterFor(contractx.AgentTypeClassifier)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build classifier model")
	}

	classifier, err := classifyx.NewLLM(ctx, chatModel, prompts.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("build llm classifier")
	}
	return classifier
}

func buildInformer(ctx context.Context, appCfg *AppConfig, llmCfg llmx.Config, prompts promptx.PromptSet) contractx.Informer {
	kstore := buildKnowledgeStore(ctx, appCfg, llmCfg)

	var opts []queryx.Option
	if llmCfg.Enabled() {
		modelCfg := llmCfg.OpenRouterFor(contractx.AgentTypeQuery)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("build query model")
		}
		opts = append(opts, queryx.WithSummarizer(ctx, chatModel, prompts.Query))
	}

	informer, err := queryx.New(kstore, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("build query agent")
	}
	return informer
}

func buildKnowledgeStore(ctx context.Context, appCfg *AppConfig, llmCfg llmx.Config) contractx.KnowledgeStore {
	switch appCfg.KnowledgeBackend {
	case "postgres":
		client := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeQuery))
		if client == nil {
			log.Fatal().Msg("postgres knowledge backend requires an api key for embeddings")
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
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure knowledge schema")
		}
		return store

	default:
		store := knowledgex.NewMemStore()
		if err := knowledgex.Seed(ctx, store, knowledgex.DemoDocuments()); err != nil {
			log.Fatal().Err(err).Msg("seed demo documents")
		}
		return store
	}
}

func buildPurchaser() contractx.Purchaser {
	mailCfg := configx.MustNew[mailgwx.Config]("MAIL_GATEWAY")
	gateway, err := mailgwx.NewClient(*mailCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build mail gateway")
	}

	purchaseCfg := configx.MustNew[purchasex.Config]("PURCHASE")
	purchaser, err := purchasex.New(*purchaseCfg, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build purchase agent")
	}
	return purchaser
}
