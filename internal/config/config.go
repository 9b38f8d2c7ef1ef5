package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI            string
	ProfileDB      string
	ProductDB      string
	ConnectTimeout time.Duration
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	BucketProducts string
	UseSSL         bool
	Region         string
}

type SecurityConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
}

// ProcessingConfig points at the external image-to-3D-model service.
type ProcessingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// UploadConfig carries the staging validation policy and the idle TTL
// after which abandoned upload flows are pruned.
type UploadConfig struct {
	AllowedTypes []string
	MaxFileSize  int64
	MaxFiles     int
	FlowIdleTTL  time.Duration
}

// CatalogConfig drives the storefront listing.
type CatalogConfig struct {
	SourcePath string
	Categories []string
	CacheTTL   time.Duration
	ViewerPage string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Mongo            MongoConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Processing       ProcessingConfig
	Upload           UploadConfig
	Catalog          CatalogConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("MODELHAUS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.profiledb", "users")
	v.SetDefault("mongo.productdb", "furniture_db")
	v.SetDefault("mongo.connecttimeout", "10s")

	v.SetDefault("storage.bucketproducts", "modelhaus-products")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.sessionttl", "24h")

	v.SetDefault("processing.baseurl", "http://127.0.0.1:5008")
	v.SetDefault("processing.timeout", "0s")

	v.SetDefault("upload.allowedtypes", "image/jpeg,image/png,image/webp")
	v.SetDefault("upload.maxfilesize", 5*1024*1024)
	v.SetDefault("upload.maxfiles", 10)
	v.SetDefault("upload.flowidlettl", "2h")

	v.SetDefault("catalog.sourcepath", "./product.json")
	v.SetDefault("catalog.categories", "chair,sofa,desk,drawer")
	v.SetDefault("catalog.cachettl", "1m")
	v.SetDefault("catalog.viewerpage", "../web/3D_model_page.html")
}
