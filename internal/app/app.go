// Package app wires the configured backends into one facade exposing
// every outward operation: topic management, uploads, embedding and
// conversational queries.
package app

import (
	"context"
	"fmt"
	"io"

	"topic-rag/internal/config"
	"topic-rag/internal/corpus"
	"topic-rag/internal/embedding"
	"topic-rag/internal/ingest"
	"topic-rag/internal/llmservice"
	"topic-rag/internal/models"
	"topic-rag/internal/rag"
	"topic-rag/internal/registry"
	"topic-rag/internal/session"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore"
	"topic-rag/internal/vectorstore/chromem"
	"topic-rag/internal/vectorstore/memory"
	"topic-rag/internal/vectorstore/pgvector"
	"topic-rag/internal/vectorstore/qdrant"
)

type App struct {
	store    vectorstore.Store
	registry *registry.Registry
	corpus   *corpus.Corpus
	pipeline *ingest.Pipeline
	engine   *rag.Engine
	session  *session.Session
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	files, err := storage.New(cfg.RAG.UploadRoot)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(&cfg.EmbedLLM, cfg.Vector.Dimension)
	if err != nil {
		return nil, err
	}
	infer, err := llmservice.New(&cfg.InferLLM)
	if err != nil {
		return nil, err
	}
	vision, err := llmservice.New(&cfg.VisionLLM)
	if err != nil {
		return nil, err
	}

	reg := registry.New(store, embedder, files)
	if err := reg.EnsureCatalog(ctx); err != nil {
		return nil, err
	}
	pipeline := ingest.NewPipeline(store, embedder, files, vision,
		cfg.RAG.ChunkSize, cfg.RAG.Overlap())
	corp := corpus.New(store, files, pipeline, cfg.Vector.Dimension)
	sess := session.New(cfg.RAG.MaxHistory)
	engine := rag.NewEngine(reg, infer, embedder, store, sess, files, cfg.RAG.TopK)

	return &App{
		store:    store,
		registry: reg,
		corpus:   corp,
		pipeline: pipeline,
		engine:   engine,
		session:  sess,
	}, nil
}

func openStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Vector.Backend {
	case "memory":
		return memory.New(), nil
	case "chromem":
		return chromem.New(cfg.Vector.Path)
	case "qdrant":
		return qdrant.New(cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Dimension)
	case "pgvector":
		return pgvector.New(&cfg.Database, cfg.Vector.Dimension)
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}

// Topic management.

func (a *App) CreateTopic(ctx context.Context, topic, description string) error {
	return a.registry.Create(ctx, topic, description)
}

func (a *App) DeleteTopic(ctx context.Context, topic string) error {
	return a.registry.Delete(ctx, topic)
}

func (a *App) ListTopics(ctx context.Context) ([]string, error) {
	return a.registry.List(ctx)
}

func (a *App) TopicDescription(ctx context.Context, topic string) (string, error) {
	return a.registry.Description(ctx, topic)
}

func (a *App) UpdateTopicDescription(ctx context.Context, topic, description string) error {
	return a.registry.UpdateDescription(ctx, topic, description)
}

// File management.

// UploadFile stores an upload and returns the document directory it
// landed in.
func (a *App) UploadFile(ctx context.Context, topic, fileName string, r io.Reader) (string, error) {
	return a.corpus.RegisterUpload(ctx, topic, fileName, r)
}

func (a *App) ListFiles(ctx context.Context, topic string) ([]models.FileInfo, error) {
	return a.corpus.ListFiles(ctx, topic)
}

func (a *App) EmbedFiles(ctx context.Context, topic string, fileNames []string) (int, int, error) {
	return a.pipeline.EmbedFiles(ctx, topic, fileNames)
}

func (a *App) UnembedFile(ctx context.Context, topic, fileName string) error {
	return a.corpus.Unembed(ctx, topic, fileName)
}

func (a *App) DeleteFiles(ctx context.Context, topic string, fileNames []string) error {
	return a.corpus.DeleteFiles(ctx, topic, fileNames)
}

// Conversation.

func (a *App) Query(ctx context.Context, query string, topics []string, allowFallback bool) (string, error) {
	return a.engine.Query(ctx, query, topics, allowFallback)
}

func (a *App) History() []models.Message {
	return a.engine.History()
}

func (a *App) ClearHistory() {
	a.engine.ClearHistory()
}

func (a *App) Close() error {
	return a.store.Close()
}
