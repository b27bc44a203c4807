package config

// Weight and threshold defaults match the behavior the production backend
// shipped with: keyword 0.4 / vector 0.6, minimum merged score 0.3.
const (
	DefaultKeywordWeight   = 0.4
	DefaultVectorWeight    = 0.6
	DefaultThreshold       = 0.3
	DefaultBoostAmount     = 0.3
	DefaultKeywordScoreCap = 0.6
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/sarabun/data/documents.db"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.DefaultThreshold == 0 {
		cfg.Search.DefaultThreshold = DefaultThreshold
	}
	if cfg.Search.KeywordWeight == 0 {
		cfg.Search.KeywordWeight = DefaultKeywordWeight
	}
	if cfg.Search.VectorWeight == 0 {
		cfg.Search.VectorWeight = DefaultVectorWeight
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 50
	}
	if cfg.Search.KeywordScoreCap == 0 {
		cfg.Search.KeywordScoreCap = DefaultKeywordScoreCap
	}
	if cfg.Search.ChunkSize == 0 {
		cfg.Search.ChunkSize = 1000
	}
	if cfg.Search.ChunkOverlap == 0 {
		cfg.Search.ChunkOverlap = 200
	}
	if cfg.Search.ListingLimit == 0 {
		cfg.Search.ListingLimit = 100
	}
	if cfg.Search.Boost.Amount == 0 {
		cfg.Search.Boost.Amount = DefaultBoostAmount
	}
}
