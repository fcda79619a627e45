package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration for the bastion CLI. Every
// field has a default; a missing config file is not an error.
type FileConfig struct {
	Database struct {
		Path      string `yaml:"path"`
		UploadDir string `yaml:"upload_dir"`
	} `yaml:"database"`

	Embedding struct {
		Host  string `yaml:"host"`
		Model string `yaml:"model"`
		Token string `yaml:"token"`
	} `yaml:"embedding"`

	VectorStore struct {
		URL        string `yaml:"url"`
		VectorDim  int    `yaml:"vector_dim"`
		IndexLists int    `yaml:"index_lists"`
		Collection string `yaml:"collection"`
	} `yaml:"vector_store"`

	Pipeline struct {
		Strategy         string `yaml:"strategy"`
		DocumentWorkers  int    `yaml:"document_workers"`
		EmbeddingWorkers int    `yaml:"embedding_workers"`
		StorageWorkers   int    `yaml:"storage_workers"`
		MaxBatchTokens   int    `yaml:"max_batch_tokens"`
		MaxBatchItems    int    `yaml:"max_batch_items"`
		MaxRetries       int    `yaml:"max_retries"`
	} `yaml:"pipeline"`

	Notify struct {
		AMQPURL string `yaml:"amqp_url"`
		Queue   string `yaml:"queue"`
	} `yaml:"notify"`
}

// LoadFileConfig reads the config file at path. If path is empty it
// probes the default locations and falls back to built-in defaults
// when none exists.
func LoadFileConfig(path string) (*FileConfig, error) {
	if path == "" {
		locations := []string{
			"bastion.yaml",
			"bastion.yml",
			filepath.Join(os.Getenv("HOME"), ".config/bastion/config.yaml"),
			"/etc/bastion/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	config := &FileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *FileConfig) {
	if config.Database.Path == "" {
		config.Database.Path = "bastion.db"
	}
	if config.Database.UploadDir == "" {
		config.Database.UploadDir = "uploads"
	}

	if config.Embedding.Host == "" {
		config.Embedding.Host = "http://localhost:11434/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text"
	}

	if config.VectorStore.VectorDim == 0 {
		config.VectorStore.VectorDim = 384
	}
	if config.VectorStore.IndexLists == 0 {
		config.VectorStore.IndexLists = 100
	}
	if config.VectorStore.Collection == "" {
		config.VectorStore.Collection = "documents"
	}

	if config.Notify.Queue == "" {
		config.Notify.Queue = "document-status"
	}
}

func mergeWithEnv(config *FileConfig) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.VectorStore.URL = url
	}
	if host := os.Getenv("EMBEDDING_HOST"); host != "" {
		config.Embedding.Host = host
	}
	if token := os.Getenv("EMBEDDING_TOKEN"); token != "" {
		config.Embedding.Token = token
	}
	if url := os.Getenv("AMQP_URL"); url != "" {
		config.Notify.AMQPURL = url
	}
}
