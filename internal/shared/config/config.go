package config

import (
	"os"
	"strconv"
	"time"

	"github.com/radieske/event-odds-gateway/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução do serviço
// Inclui endpoint do fornecedor de odds, política de retry/cache, portas e
// integrações opcionais (Kafka, Redis)
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	// Upstream (fornecedor de odds)
	UpstreamBaseURL      string
	UpstreamHash         string // parâmetro "_hash" exigido pelo endpoint
	ProjectID            string
	GeoIPCode            string
	GeoIPSubdivisionCode string
	UpstreamTimeout      time.Duration

	// Política de retry/backoff e cache do fetch client
	MaxRetries    int
	BackoffFactor float64 // segundos, multiplicado por 2^attempt
	MaxBackoff    time.Duration
	CacheTTL      time.Duration // <= 0 desativa o cache

	// Identificador do fornecedor usado quando o payload não informa origem
	SourceLabel string

	// Integrações opcionais: vazio desativa
	KafkaBrokers       string // "a:9092,b:9092"
	TopicOddsSnapshots string
	RedisAddr          string
	RedisPubSubChannel string

	// Portas
	HTTPPort    string // API pública
	MetricsPort string // /metrics e /healthz
}

// Load carrega variáveis de ambiente e define defaults
func Load() Config {
	return Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "odds-gateway"),

		UpstreamBaseURL:      getEnv("UPSTREAM_BASE_URL", "https://global.ds.lsapp.eu/odds/pq_graphql"),
		UpstreamHash:         getEnv("UPSTREAM_HASH", "oce"),
		ProjectID:            getEnv("UPSTREAM_PROJECT_ID", "1"),
		GeoIPCode:            getEnv("UPSTREAM_GEO_IP_CODE", "CZ"),
		GeoIPSubdivisionCode: getEnv("UPSTREAM_GEO_IP_SUBDIVISION_CODE", "CZ10"),
		UpstreamTimeout:      getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),

		MaxRetries:    getEnvInt("UPSTREAM_MAX_RETRIES", 3),
		BackoffFactor: getEnvFloat("UPSTREAM_BACKOFF_FACTOR", 0.75),
		MaxBackoff:    getEnvDuration("UPSTREAM_MAX_BACKOFF", 10*time.Second),
		CacheTTL:      getEnvDuration("ODDS_CACHE_TTL", 30*time.Second),

		SourceLabel: getEnv("ODDS_SOURCE_LABEL", "livesport"),

		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		TopicOddsSnapshots: getEnv("KAFKA_TOPIC_ODDS_SNAPSHOTS", topics.OddsSnapshots),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPubSubChannel: getEnv("REDIS_PUBSUB_CHANNEL", "odds_snapshots_broadcast"),

		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9095"),
	}
}

// UpstreamHeaders retorna os headers enviados ao endpoint de odds.
// Os valores imitam um navegador e são opacos para o serviço; Origin, Referer
// e User-Agent podem ser sobrescritos por ambiente.
func (c Config) UpstreamHeaders() map[string]string {
	return map[string]string{
		"Accept":          "*/*",
		"Accept-Language": "cs-CZ,cs;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
		"Origin":          getEnv("UPSTREAM_ORIGIN", "https://www.livesport.cz"),
		"Referer":         getEnv("UPSTREAM_REFERER", "https://www.livesport.cz/"),
		"User-Agent": getEnv("UPSTREAM_USER_AGENT",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) "+
				"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3.1 Safari/605.1.15"),
		"Sec-Fetch-Site": "cross-site",
		"Sec-Fetch-Dest": "empty",
		"Sec-Fetch-Mode": "cors",
		"Priority":       "u=3, i",
	}
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// getEnvInt faz parse de inteiro; valores inválidos caem no default
func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvFloat faz parse de float; valores inválidos caem no default
func getEnvFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration aceita formato do time.ParseDuration (ex: "30s", "1m")
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
