package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
)

var config *Config

// Config This struct holds config envs and values
// used by every binary of the billing console. Only this struct must be used
// to hold any configuration values, no direct access to
// env, ini or any other config source should be made
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=billing_console"`
	AppDebug            bool   `env:"APP_DEBUG,default=false"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:1234"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=10s"`
	HttpCorsOrigin     string        `env:"HTTP_CORS_ORIGIN,default=*"`

	TransactionStore string `env:"TRANSACTION_STORE,default=memory"`
	MockSeedSize     int    `env:"MOCK_SEED_SIZE,default=137"`
	DBDriver         string `env:"DB_DRIVER,default=sqlite"`
	SqlitePath       string `env:"SQLITE_PATH,default=:memory:"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=billing:"`

	JwtSecret string        `env:"JWT_SECRET,default=change-me"`
	JwtTTL    time.Duration `env:"JWT_TTL,default=15m"`

	InvoicerURL        string        `env:"INVOICER_URL"`
	InvoicerTimeout    time.Duration `env:"INVOICER_TIMEOUT,default=5s"`
	InvoicerMaxRetries int           `env:"INVOICER_MAX_RETRIES,default=2"`

	PromNamespace string `env:"PROM_NAMESPACE,default=gfconnector"`

	QueueName              string        `env:"QUEUE_NAME,default=invoice-delivery"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=delivery-workers"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueConsumers         int           `env:"QUEUE_CONSUMERS,default=2"`
	QueueWorkers           int           `env:"QUEUE_WORKERS,default=8"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=3"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=1s"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=10"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=10000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	ApiBaseURL            string        `env:"API_BASE_URL,default=http://localhost:1234"`
	UseMocks              bool          `env:"USE_MOCKS,default=false"`
	SessionFile           string        `env:"SESSION_FILE"`
	ConsolePageSize       int           `env:"CONSOLE_PAGE_SIZE,default=20"`
	ConsoleSearchDebounce time.Duration `env:"CONSOLE_SEARCH_DEBOUNCE,default=400ms"`
	ConsolePollInterval   time.Duration `env:"CONSOLE_POLL_INTERVAL,default=10s"`
	ConsoleBulkWorkers    int           `env:"CONSOLE_BULK_WORKERS,default=1"`
}

func Load(path string) error {
	logger.Debug("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration file "+path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err := c.validate(); err != nil {
		return err
	}

	config = c
	return nil
}

// Set installs an already built configuration. Tests use it to bypass the environment.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

func (c *Config) validate() error {
	switch c.TransactionStore {
	case StoreMemory, StoreSQL:
	default:
		return errors.Errorf("unknown TRANSACTION_STORE %q", c.TransactionStore)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// IsDev reports whether the app runs in a development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "local"
}

// ArgEnvPath returns the value of a --env=path argument when the file exists.
func ArgEnvPath(args []string) string {
	for _, v := range args {
		if path, ok := strings.CutPrefix(v, "--env="); ok {
			if _, err := os.Stat(path); err != nil {
				logger.Error("failed to open the passed env file", "path", path, "error", err)
				return ""
			}
			return path
		}
	}
	return ""
}
