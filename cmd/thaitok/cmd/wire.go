package cmd

import (
	"log/slog"

	"github.com/thaisearch/thaitok/internal/config"
	"github.com/thaisearch/thaitok/internal/document"
	"github.com/thaisearch/thaitok/internal/meili"
	"github.com/thaisearch/thaitok/internal/token"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

// buildSegmenter wires the dictionary and optional remote backend from the
// configuration. When done is non-nil and a dictionary file is configured,
// the file is watched for hot reload until done closes.
func buildSegmenter(cfg *config.Config, logger *slog.Logger, done <-chan struct{}) (*tokenizer.Segmenter, *tokenizer.HTTPBackend, error) {
	dict := tokenizer.NewDictionary(nil, cfg.Tokenizer.WakamePreset)
	if path := cfg.Tokenizer.DictionaryPath; path != "" {
		if _, err := dict.LoadFile(path); err != nil {
			return nil, nil, err
		}
		if done != nil {
			if err := dict.Watch(path, done, logger); err != nil {
				return nil, nil, err
			}
		}
	}

	opts := []tokenizer.SegmenterOption{
		tokenizer.WithCacheSize(cfg.Tokenizer.CacheSize),
		tokenizer.WithLogger(logger),
	}

	// A typed-nil backend must not reach the interface parameter.
	if cfg.Tokenizer.BackendURL == "" {
		return tokenizer.NewSegmenter(nil, cfg.Tokenizer.Engine, dict, opts...), nil, nil
	}

	backend := tokenizer.NewHTTPBackend(tokenizer.HTTPBackendConfig{
		BaseURL: cfg.Tokenizer.BackendURL,
		Timeout: cfg.Tokenizer.BackendTimeout,
	})
	return tokenizer.NewSegmenter(backend, cfg.Tokenizer.Engine, dict, opts...), backend, nil
}

// buildDocumentProcessor wires the per-document pipeline.
func buildDocumentProcessor(cfg *config.Config, seg *tokenizer.Segmenter, logger *slog.Logger) *document.Processor {
	post := token.NewProcessor(cfg.Tokenizer.HandleCompounds)
	return document.NewProcessor(seg, post,
		cfg.Processing.SearchableFields, cfg.SearchEngine.PrimaryKey, logger)
}

// buildEngineClient wires the outbound search-engine client.
func buildEngineClient(cfg *config.Config, logger *slog.Logger) *meili.Client {
	return meili.NewClient(meili.Config{
		Host:       cfg.SearchEngine.Host,
		Port:       cfg.SearchEngine.Port,
		APIKey:     cfg.SearchEngine.APIKey,
		SSL:        cfg.SearchEngine.SSL,
		Timeout:    cfg.SearchEngine.Timeout,
		PrimaryKey: cfg.SearchEngine.PrimaryKey,
	}, logger)
}
