package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Queue drivers
const (
	QueueDriverRedis  = "redis"
	QueueDriverLmstfy = "lmstfy"
)

// Dedup drivers
const (
	DedupDriverNone     = "none"
	DedupDriverMemory   = "memory"
	DedupDriverRedis    = "redis"
	DedupDriverMySQL    = "mysql"
	DedupDriverPostgres = "postgres"
)

// Config global configuration shared by the worker and the API server
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Queue    QueueConfig    `mapstructure:"queue"`
	DataAPI  DataAPIConfig  `mapstructure:"dataapi"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Callback CallbackConfig `mapstructure:"callback"`
	Dedup    DedupConfig    `mapstructure:"dedup"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Workers  []WorkerConfig `mapstructure:"workers"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// QueueConfig selects the transport of the jobs channel
type QueueConfig struct {
	Driver  string `mapstructure:"driver"`  // redis | lmstfy
	Channel string `mapstructure:"channel"` // pub/sub channel or lmstfy queue name
}

// DataAPIConfig remote record store (query + composite write)
type DataAPIConfig struct {
	InstanceURL string        `mapstructure:"instance_url"`
	APIVersion  string        `mapstructure:"api_version"`
	AccessToken string        `mapstructure:"access_token"`
	AllOrNone   bool          `mapstructure:"all_or_none"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type PricingConfig struct {
	Region                  string             `mapstructure:"region"`
	EnableDiscountOverrides bool               `mapstructure:"enable_discount_overrides"`
	DiscountOverrides       map[string]float64 `mapstructure:"discount_overrides"`
}

type CallbackConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DedupConfig ledger of committed job ids
type DedupConfig struct {
	Driver string        `mapstructure:"driver"`
	DSN    string        `mapstructure:"dsn"` // mysql / postgres only
	TTL    time.Duration `mapstructure:"ttl"`
	// Lease bounds how long an in-flight claim blocks other deliveries of the same job.
	Lease time.Duration `mapstructure:"lease"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// WorkerConfig one consumer of the jobs channel
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // concurrent receivers
	Rate         time.Duration `mapstructure:"rate"`          // pause between receives
	Timeout      time.Duration `mapstructure:"timeout"`       // receive timeout
	TTR          time.Duration `mapstructure:"ttr"`           // lmstfy time-to-run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // pause after a receive error
}

type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`
	BufferSize int           `mapstructure:"buffer_size"`
	Timeout    time.Duration `mapstructure:"timeout"` // 0 = no deadline
}

// Load reads .env (if present), the yaml file at configPath and environment overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	cfg.applyWorkerDefaults()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quotesync")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("server.port", "5000")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("queue.driver", QueueDriverRedis)
	v.SetDefault("queue.channel", "jobsChannel")
	v.SetDefault("dataapi.api_version", "v62.0")
	v.SetDefault("dataapi.all_or_none", true)
	v.SetDefault("dataapi.timeout", 30*time.Second)
	v.SetDefault("pricing.region", "NAMER")
	v.SetDefault("callback.timeout", 10*time.Second)
	v.SetDefault("dedup.driver", DedupDriverRedis)
	v.SetDefault("dedup.ttl", 24*time.Hour)
	v.SetDefault("dedup.lease", 10*time.Minute)
	v.SetDefault("metrics.addr", ":9100")
}

// applyWorkerDefaults fills zero valued worker knobs; a config without workers gets one.
func (c *Config) applyWorkerDefaults() {
	if len(c.Workers) == 0 {
		c.Workers = []WorkerConfig{{Name: "quote-worker"}}
	}
	for i := range c.Workers {
		w := &c.Workers[i]
		if w.Subscriber.Threads <= 0 {
			w.Subscriber.Threads = 1
		}
		if w.Subscriber.Timeout <= 0 {
			w.Subscriber.Timeout = 5 * time.Second
		}
		if w.Subscriber.TTR <= 0 {
			w.Subscriber.TTR = 60 * time.Second
		}
		if w.Subscriber.ErrorBackoff <= 0 {
			w.Subscriber.ErrorBackoff = time.Second
		}
		if w.Processor.Threads <= 0 {
			w.Processor.Threads = 1
		}
		if w.Processor.BufferSize <= 0 {
			w.Processor.BufferSize = 1
		}
	}
}

// Validate checks the settings both binaries need
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Queue.Driver {
	case QueueDriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for queue driver %q", c.Queue.Driver)
		}
	case QueueDriverLmstfy:
		if c.Lmstfy.Host == "" {
			return fmt.Errorf("lmstfy.host is required for queue driver %q", c.Queue.Driver)
		}
	default:
		return fmt.Errorf("unknown queue.driver: %q", c.Queue.Driver)
	}
	if c.Queue.Channel == "" {
		return fmt.Errorf("queue.channel is required")
	}

	if c.DataAPI.InstanceURL == "" {
		return fmt.Errorf("dataapi.instance_url is required")
	}

	switch c.Dedup.Driver {
	case "", DedupDriverNone, DedupDriverMemory, DedupDriverRedis:
	case DedupDriverMySQL, DedupDriverPostgres:
		if c.Dedup.DSN == "" {
			return fmt.Errorf("dedup.dsn is required for dedup driver %q", c.Dedup.Driver)
		}
	default:
		return fmt.Errorf("unknown dedup.driver: %q", c.Dedup.Driver)
	}
	if c.Dedup.Lease > c.Dedup.TTL {
		return fmt.Errorf("dedup.lease (%s) must not exceed dedup.ttl (%s)", c.Dedup.Lease, c.Dedup.TTL)
	}

	return nil
}

// ValidateWorker adds the worker-only checks on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataAPI.AccessToken == "" {
		return fmt.Errorf("dataapi.access_token is required for the worker")
	}
	// every worker subscribes to the same channel; pub/sub would hand each of them a copy
	if len(c.Workers) != 1 {
		return fmt.Errorf("exactly one worker is supported per instance, got %d", len(c.Workers))
	}
	for _, w := range c.Workers {
		if w.Name == "" {
			return fmt.Errorf("workers[].name is required")
		}
		// one message at a time per worker instance
		if w.Processor.Threads != 1 {
			return fmt.Errorf("worker %s: processor.threads must be 1, got %d", w.Name, w.Processor.Threads)
		}
	}
	return nil
}
