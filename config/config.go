package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// ListeningPortKey is the port where the HTTP interface listens on
	ListeningPortKey = "LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbTypeKey is the storage backend, one of inmemory, badger or postgres
	DbTypeKey = "DB_TYPE"
	// PgConnectAddrKey is the postgres data source, required with the postgres
	// backend
	PgConnectAddrKey = "PG_CONNECT_ADDR"
	// SweepIntervalKey is the interval in seconds between two timeout sweeps.
	// A zero value disables the background sweeper.
	SweepIntervalKey = "SWEEP_INTERVAL"
	// SweepConcurrencyKey is the max number of auctions resolved in parallel
	SweepConcurrencyKey = "SWEEP_CONCURRENCY"
	// AuthSecretKey is the HMAC secret used to verify bearer tokens
	AuthSecretKey = "AUTH_SECRET"
	// AdminUsersKey is the comma separated list of user ids allowed to call
	// the admin endpoints
	AdminUsersKey = "ADMIN_USERS"
	// BookingServiceURLKey is the base url of the booking service
	BookingServiceURLKey = "BOOKING_SERVICE_URL"
	// PaymentServiceURLKey is the base url of the payment service holding escrows
	PaymentServiceURLKey = "PAYMENT_SERVICE_URL"
	// CollaboratorAPIKeyKey is sent as X-Api-Key to the booking and payment services
	CollaboratorAPIKeyKey = "COLLABORATOR_API_KEY"
	// CollaboratorTimeoutKey is the timeout in seconds of calls to collaborators
	CollaboratorTimeoutKey = "COLLABORATOR_TIMEOUT"
	// CollaboratorRateLimitKey is the max number of requests per second made
	// to each collaborator
	CollaboratorRateLimitKey = "COLLABORATOR_RATE_LIMIT"
	// AmqpURLKey enables publishing auction events to a RabbitMQ broker
	AmqpURLKey = "AMQP_URL"
	// AmqpExchangeKey is the topic exchange auction events are published to
	AmqpExchangeKey = "AMQP_EXCHANGE"
	// WebhookEndpointsKey is a comma separated list of endpoints subscribed
	// to every event at startup
	WebhookEndpointsKey = "WEBHOOK_ENDPOINTS"
	// WebhookSecretKey is used to sign the requests to WEBHOOK_ENDPOINTS
	WebhookSecretKey = "WEBHOOK_SECRET"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval in seconds for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	DbTypeInmemory = "inmemory"
	DbTypeBadger   = "badger"
	DbTypePostgres = "postgres"

	minAuthSecretLen = 32
)

var (
	vip            *viper.Viper
	defaultDatadir = appDataDir("bookswapd")

	supportedDbTypes = map[string]struct{}{
		DbTypeInmemory: {},
		DbTypeBadger:   {},
		DbTypePostgres: {},
	}
)

func init() {
	// Variables already defined in the environment take precedence.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env file")
	}

	vip = viper.New()
	vip.SetEnvPrefix("BOOKSWAP")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 8080)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DbTypeKey, DbTypeBadger)
	vip.SetDefault(SweepIntervalKey, 60)
	vip.SetDefault(SweepConcurrencyKey, 4)
	vip.SetDefault(CollaboratorTimeoutKey, 15)
	vip.SetDefault(CollaboratorRateLimitKey, 50)
	vip.SetDefault(AmqpExchangeKey, "bookswap.events")
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetSeconds returns the value of the key as a number of seconds.
func GetSeconds(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

// GetList returns the comma separated values of the key, trimmed and
// without empty entries.
func GetList(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the badger databases. Webhooks are
// stored there with every db type but inmemory.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// Validate checks the current configuration.
func Validate() error {
	return validate()
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	logLevel := GetInt(LogLevelKey)
	if logLevel < int(log.PanicLevel) || logLevel > int(log.TraceLevel) {
		return fmt.Errorf(
			"log level must be in range [%d, %d]", log.PanicLevel, log.TraceLevel,
		)
	}

	dbType := GetString(DbTypeKey)
	if _, ok := supportedDbTypes[dbType]; !ok {
		return fmt.Errorf(
			"db type must be one of '%s', '%s' or '%s'",
			DbTypeInmemory, DbTypeBadger, DbTypePostgres,
		)
	}
	if dbType == DbTypePostgres && GetString(PgConnectAddrKey) == "" {
		return fmt.Errorf("postgres db type requires %s", PgConnectAddrKey)
	}

	if GetInt(SweepIntervalKey) < 0 {
		return fmt.Errorf("sweep interval must not be negative")
	}
	if GetInt(SweepConcurrencyKey) <= 0 {
		return fmt.Errorf("sweep concurrency must be positive")
	}
	if GetInt(CollaboratorTimeoutKey) <= 0 {
		return fmt.Errorf("collaborator timeout must be positive")
	}
	if GetInt(CollaboratorRateLimitKey) <= 0 {
		return fmt.Errorf("collaborator rate limit must be positive")
	}

	secret := GetString(AuthSecretKey)
	if secret != "" && len(secret) < minAuthSecretLen {
		return fmt.Errorf(
			"auth secret must be at least %d characters long", minAuthSecretLen,
		)
	}

	for _, key := range []string{
		BookingServiceURLKey, PaymentServiceURLKey, AmqpURLKey,
	} {
		if v := GetString(key); v != "" {
			if _, err := url.ParseRequestURI(v); err != nil {
				return fmt.Errorf("%s is not a valid url: %s", key, err)
			}
		}
	}
	for _, endpoint := range GetList(WebhookEndpointsKey) {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("webhook endpoint %s is not a valid url", endpoint)
		}
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}

	if GetString(DbTypeKey) != DbTypeInmemory {
		if err := makeDirectoryIfNotExists(GetDbDir()); err != nil {
			return err
		}
	}

	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func appDataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}
