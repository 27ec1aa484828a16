package model

// Config is the complete verifact configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Evidence    EvidenceConfig    `yaml:"evidence" mapstructure:"evidence"`
	Reliability ReliabilityConfig `yaml:"reliability" mapstructure:"reliability"`
	Index       IndexConfig       `yaml:"index" mapstructure:"index"`
	Clustering  ClusteringConfig  `yaml:"clustering" mapstructure:"clustering"`
	Alerts      AlertConfig       `yaml:"alerts" mapstructure:"alerts"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Worker      WorkerConfig      `yaml:"worker" mapstructure:"worker"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the text generation provider used for detection and verdicts
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (zero vectors)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// EvidenceConfig configures retrieval
type EvidenceConfig struct {
	FactCheckAPIKey string  `yaml:"factcheck_api_key,omitempty" mapstructure:"factcheck_api_key"`
	NewsAPIKey      string  `yaml:"news_api_key,omitempty" mapstructure:"news_api_key"`
	WebEnabled      bool    `yaml:"web_enabled" mapstructure:"web_enabled"`
	EnrichExcerpts  bool    `yaml:"enrich_excerpts" mapstructure:"enrich_excerpts"` // fetch pages for sources without an excerpt
	FactCheckURL    string  `yaml:"factcheck_url" mapstructure:"factcheck_url"`
	NewsURL         string  `yaml:"news_url" mapstructure:"news_url"`
	WebURL          string  `yaml:"web_url" mapstructure:"web_url"`
	AdapterTimeout  int     `yaml:"adapter_timeout" mapstructure:"adapter_timeout"` // seconds
	MaxSources      int     `yaml:"max_sources" mapstructure:"max_sources"`
	MaxQueries      int     `yaml:"max_queries" mapstructure:"max_queries"`
	RatePerSecond   float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// ReliabilityConfig is the domain reliability table
type ReliabilityConfig struct {
	High            []string           `yaml:"high" mapstructure:"high"`
	Medium          []string           `yaml:"medium" mapstructure:"medium"`
	TrustedSuffixes []string           `yaml:"trusted_suffixes" mapstructure:"trusted_suffixes"`
	Overrides       map[string]float64 `yaml:"overrides,omitempty" mapstructure:"overrides"`
	HighScore       float64            `yaml:"high_score" mapstructure:"high_score"`
	MediumScore     float64            `yaml:"medium_score" mapstructure:"medium_score"`
	SuffixScore     float64            `yaml:"suffix_score" mapstructure:"suffix_score"`
	DefaultScore    float64            `yaml:"default_score" mapstructure:"default_score"`
}

// IndexConfig configures the similarity index
type IndexConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // badger directory; "" resolves to ~/.verifact/index, ":memory:" skips persistence
}

// ClusteringConfig configures trend detection
type ClusteringConfig struct {
	MinClusterSize    int      `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
	TrendingThreshold int      `yaml:"trending_threshold" mapstructure:"trending_threshold"`
	WindowHours       int      `yaml:"window_hours" mapstructure:"window_hours"`
	MaxClaims         int      `yaml:"max_claims" mapstructure:"max_claims"`
	BudgetSeconds     int      `yaml:"budget_seconds" mapstructure:"budget_seconds"` // 0 disables the budget
	IntervalMinutes   int      `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	Stopwords         []string `yaml:"stopwords" mapstructure:"stopwords"`
}

// AlertConfig holds harm thresholds
type AlertConfig struct {
	HarmThreshold     int `yaml:"harm_threshold" mapstructure:"harm_threshold"`
	CriticalThreshold int `yaml:"critical_threshold" mapstructure:"critical_threshold"`
}

// StoreConfig configures the SQLite record store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // "" resolves to ~/.verifact/verifact.db
}

// RedisConfig configures the optional trend board
type RedisConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr        string `yaml:"addr" mapstructure:"addr"`
	Password    string `yaml:"password,omitempty" mapstructure:"password"`
	DB          int    `yaml:"db" mapstructure:"db"`
	TrendingKey string `yaml:"trending_key" mapstructure:"trending_key"`
	AlertsKey   string `yaml:"alerts_key" mapstructure:"alerts_key"`
	AlertsCap   int64  `yaml:"alerts_cap" mapstructure:"alerts_cap"`
}

// CacheConfig configures the retrieval and embedding cache
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxBytes   int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// WorkerConfig configures batch processing
type WorkerConfig struct {
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
	StaleAfterMinute int `yaml:"stale_after_minutes" mapstructure:"stale_after_minutes"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultStopwords are dropped when labelling clusters
var DefaultStopwords = []string{"about", "there", "their", "would", "could", "should"}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "", // Disabled by default
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   1500,
			Temperature: 0.1,
		},
		Embedding: EmbeddingConfig{
			Provider:  "",
			Model:     "text-embedding-3-large",
			Dimension: 3072,
			Timeout:   30,
		},
		Evidence: EvidenceConfig{
			FactCheckURL:   "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			NewsURL:        "https://newsapi.org/v2/everything",
			WebURL:         "https://en.wikipedia.org/w/api.php",
			EnrichExcerpts: true,
			AdapterTimeout: 10,
			MaxSources:     10,
			MaxQueries:     5,
			RatePerSecond:  2,
			Burst:          4,
		},
		Reliability: ReliabilityConfig{
			High: []string{
				"who.int", "cdc.gov", "nih.gov", "nature.com", "science.org",
				"reuters.com", "apnews.com", "bbc.com", "npr.org",
				"snopes.com", "factcheck.org", "politifact.com",
			},
			Medium: []string{
				"nytimes.com", "washingtonpost.com", "theguardian.com",
				"cnn.com", "abcnews.go.com", "cbsnews.com",
			},
			TrustedSuffixes: []string{".gov", ".edu"},
			HighScore:       0.95,
			MediumScore:     0.75,
			SuffixScore:     0.85,
			DefaultScore:    0.5,
		},
		Index: IndexConfig{
			Path: "",
		},
		Clustering: ClusteringConfig{
			MinClusterSize:    3,
			TrendingThreshold: 5,
			WindowHours:       24,
			MaxClaims:         1000,
			IntervalMinutes:   15,
			Stopwords:         append([]string(nil), DefaultStopwords...),
		},
		Alerts: AlertConfig{
			HarmThreshold:     70,
			CriticalThreshold: 90,
		},
		Store: StoreConfig{
			Path: "",
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			TrendingKey: "verifact:trending",
			AlertsKey:   "verifact:alerts",
			AlertsCap:   500,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        "", // resolved to ~/.verifact/cache at runtime
			TTLMinutes: 60,
		},
		HTTP: HTTPConfig{
			UserAgent: "verifact/0.1 (+https://github.com/ppiankov/verifact)",
			Timeout:   10,
			MaxBytes:  2_000_000,
		},
		Worker: WorkerConfig{
			Concurrency:      4,
			StaleAfterMinute: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
