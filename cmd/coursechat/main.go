package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coursechat/internal/config"
	"coursechat/internal/docproc"
	"coursechat/internal/embedding"
	"coursechat/internal/embedding/openai"
	"coursechat/internal/embedding/tfidf"
	"coursechat/internal/generator/anthropic"
	"coursechat/internal/ingest"
	"coursechat/internal/orchestrator"
	"coursechat/internal/session"
	"coursechat/internal/tools"
	"coursechat/internal/tui"
	"coursechat/internal/vectorstore"
	"coursechat/internal/vectorstore/memory"
	"coursechat/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file")
	docsDir := flag.String("docs", "docs", "Directory of course documents to ingest")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// log to a file so the TUI stays clean
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"coursechat.log"}
	logger, err := logCfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Assemble components
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var catalog, content vectorstore.Index
	switch cfg.VectorStore.Type {
	case "memory", "":
		catalog = memory.NewIndex()
		content = memory.NewIndex()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		q := cfg.VectorStore.Qdrant
		timeout := time.Duration(q.TimeoutSecs) * time.Second
		catalog = qdrant.NewIndex(qdrant.Config{
			URL: q.URL, APIKey: q.APIKey,
			Collection: q.CollectionPrefix + "_catalog", Timeout: timeout,
		})
		content = qdrant.NewIndex(qdrant.Config{
			URL: q.URL, APIKey: q.APIKey,
			Collection: q.CollectionPrefix + "_content", Timeout: timeout,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	store := vectorstore.NewStore(catalog, content, emb, vectorstore.Options{
		MaxResults:       cfg.Search.MaxResults,
		ResolveThreshold: *cfg.Search.ResolveThreshold,
	})

	proc := docproc.NewProcessor(cfg.Processor.ChunkSize, *cfg.Processor.ChunkOverlap)
	loader := ingest.NewLoader(proc, store, emb, logger)
	courses, chunks, err := loader.LoadDirectory(*docsDir)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	if courses == 0 {
		log.Fatalf("no course documents found in %s", *docsDir)
	}
	logger.Info("corpus loaded", zap.Int("courses", courses), zap.Int("chunks", chunks))

	gen, err := anthropic.NewClient(anthropic.Config{
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	registry := tools.NewRegistry(tools.NewCourseSearch(store, cfg.Search.MaxResults))
	sessions := session.NewStore(cfg.Session.MaxHistory)
	orch := orchestrator.New(gen, registry, sessions, logger)

	total, titles := store.Analytics()
	summary := fmt.Sprintf("%d courses loaded: %s", total, strings.Join(titles, ", "))

	if _, err := tea.NewProgram(tui.New(orch, summary)).Run(); err != nil {
		log.Fatal(err)
	}
}
