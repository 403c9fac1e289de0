package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultChunkSize    = 500 // whitespace tokens
	defaultChunkOverlap = 250
	defaultTopK         = 5
	defaultDimension    = 768
	defaultUploadRoot   = "./uploads"
	defaultMaxHistory   = 40
)

type Config struct {
	Vector    VectorConfig   `yaml:"vector"`
	Database  DatabaseConfig `yaml:"database"`
	EmbedLLM  LLMConfig      `yaml:"embed_llm"`
	InferLLM  LLMConfig      `yaml:"infer_llm"`
	VisionLLM LLMConfig      `yaml:"vision_llm"`
	RAG       RAGConfig      `yaml:"rag"`
}

// VectorConfig selects and addresses the vector index backend.
type VectorConfig struct {
	// Backend is one of "memory", "chromem", "qdrant" or "pgvector".
	Backend   string `yaml:"backend"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"` // chromem persistence directory
	Dimension int    `yaml:"dimension"`
}

// DatabaseConfig is used by the pgvector backend only.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "ollama" or "openai"
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"key"`
}

type RAGConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit 0 survives defaulting.
	ChunkOverlap *int   `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	UploadRoot   string `yaml:"upload_root"`
	MaxHistory   int    `yaml:"max_history"`
}

// Overlap returns the configured chunk overlap after defaulting.
func (r RAGConfig) Overlap() int {
	if r.ChunkOverlap == nil {
		return defaultChunkOverlap
	}
	return *r.ChunkOverlap
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued tunables.
func (c *Config) ApplyDefaults() {
	if c.Vector.Backend == "" {
		c.Vector.Backend = "chromem"
	}
	if c.Vector.Dimension == 0 {
		c.Vector.Dimension = defaultDimension
	}
	if c.Vector.Path == "" {
		c.Vector.Path = "./chromemdb"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == nil {
		overlap := defaultChunkOverlap
		c.RAG.ChunkOverlap = &overlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.UploadRoot == "" {
		c.RAG.UploadRoot = defaultUploadRoot
	}
	if c.RAG.MaxHistory == 0 {
		c.RAG.MaxHistory = defaultMaxHistory
	}
	if c.VisionLLM.Model == "" {
		c.VisionLLM = c.InferLLM
	}
}
