package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Crawl.MaxDepth == 0 {
		cfg.Crawl.MaxDepth = 10
	}
	if cfg.Crawl.FetchRetries == 0 {
		cfg.Crawl.FetchRetries = 2
	}
	if cfg.Pipeline.AllowedExtensions == nil {
		cfg.Pipeline.AllowedExtensions = []string{
			".txt", ".md", ".rst", ".py", ".js", ".html", ".css",
			".pdf", ".docx", ".xlsx",
		}
	}
	if cfg.Pipeline.MaxFileSizeBytes == 0 {
		cfg.Pipeline.MaxFileSizeBytes = 50 * 1024 * 1024
	}
	if cfg.Pipeline.WorkerPoolSize == 0 {
		cfg.Pipeline.WorkerPoolSize = 4
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./nexus_cache/cache_metadata.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "./nexus_cache/indices/vectors.bin"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "./nexus_cache/indices/keyword"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Status.Path == "" {
		cfg.Status.Path = "./ingestion_status.json"
	}
	if cfg.Status.WriteIntervalSeconds == 0 {
		cfg.Status.WriteIntervalSeconds = 2
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Inbox.Extensions == nil {
		cfg.Inbox.Extensions = cfg.Pipeline.AllowedExtensions
	}
}
