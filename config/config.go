package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "SHOPCART_CONFIG_FILE"

const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

type storageCfg struct {
	Driver     string `mapstructure:"driver"`
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	DSN        string `mapstructure:"dsn"`
	Key        string `mapstructure:"key"`
}

type notifications struct {
	PlainTTL time.Duration `mapstructure:"plain_ttl"`
	RichTTL  time.Duration `mapstructure:"rich_ttl"`
	Exit     time.Duration `mapstructure:"exit"`
}

type sessions struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type checkout struct {
	Delay time.Duration `mapstructure:"delay"`
}

type welcome struct {
	Enabled bool          `mapstructure:"enabled"`
	Delay   time.Duration `mapstructure:"delay"`
	Title   string        `mapstructure:"title"`
	Message string        `mapstructure:"message"`
	Icon    string        `mapstructure:"icon"`
}

type consumers struct {
	CartStatsGroup string `mapstructure:"cart_stats_group"`
}

type topics struct {
	CartEvents string `mapstructure:"cart_events"`
}

type brokerTLS struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	StaticDir      string        `mapstructure:"static_dir"`
	Storage        storageCfg    `mapstructure:"storage"`
	Notifications  notifications `mapstructure:"notifications"`
	Sessions       sessions      `mapstructure:"sessions"`
	Checkout       checkout      `mapstructure:"checkout"`
	Welcome        welcome       `mapstructure:"welcome"`
	Broker         broker        `mapstructure:"broker"`
}

// StreamEnabled reports whether cart events go to the broker.
func (c Config) StreamEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

// Load reads the file from --config or SHOPCART_CONFIG_FILE and
// exits with code 2 on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

func LoadFile(path string) (Config, error) {
	const op = "config.LoadFile"

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", LogFormatJSON)
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("static_dir", "")

	v.SetDefault("storage.driver", StorageFile)
	v.SetDefault("storage.dir", "./data/carts")
	v.SetDefault("storage.sqlite_path", "./data/shopcart.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.key", "dcreativecraftsCart")

	v.SetDefault("notifications.plain_ttl", "3s")
	v.SetDefault("notifications.rich_ttl", "4s")
	v.SetDefault("notifications.exit", "300ms")

	v.SetDefault("sessions.idle_ttl", "30m")

	v.SetDefault("checkout.delay", "1500ms")

	v.SetDefault("welcome.enabled", true)
	v.SetDefault("welcome.delay", "2s")
	v.SetDefault("welcome.title", "Welcome to D'Creative Crafts")
	v.SetDefault("welcome.message", "Explore our handcrafted flower collection!")
	v.SetDefault("welcome.icon", "fa-heart")

	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.cart_events", "cart_events")
	v.SetDefault("broker.consumers.cart_stats_group", "cart-stats")
	v.SetDefault("broker.tls.ca_file", "")
	v.SetDefault("broker.tls.cert_file", "")
	v.SetDefault("broker.tls.key_file", "")
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case StorageFile, StorageSQLite, StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for %q driver", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}

	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("sessions.idle_ttl must not be negative")
	}

	if c.StreamEnabled() && len(c.Broker.SchemaRegistryURLs) == 0 {
		return fmt.Errorf("broker.schema_registry_urls is required with seed brokers")
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "./configs/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	LogFormat=%q
	HTTPServerAddr=%q
	StaticDir=%q

	Storage:
	Driver=%q
	Dir=%q
	SQLitePath=%q
	Key=%q

	Notifications:
	PlainTTL=%s
	RichTTL=%s
	Exit=%s
	SessionIdleTTL=%s
	CheckoutDelay=%s
	Welcome=%t (after %s)

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		CartEvents=%q
	Consumers:
		CartStatsGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.LogFormat,
		c.HTTPServerAddr,
		c.StaticDir,
		c.Storage.Driver,
		c.Storage.Dir,
		c.Storage.SQLitePath,
		c.Storage.Key,
		c.Notifications.PlainTTL,
		c.Notifications.RichTTL,
		c.Notifications.Exit,
		c.Sessions.IdleTTL,
		c.Checkout.Delay,
		c.Welcome.Enabled,
		c.Welcome.Delay,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.CAFile != "",
		c.Broker.Topics.CartEvents,
		c.Broker.Consumers.CartStatsGroup,
	)
}
