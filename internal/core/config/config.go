package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name        string
	Env         string
	HTTP        HTTP
	Admin       AdminHTTP
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

// GinMode dev/test 以外一律 release
func (a App) GinMode() string {
	switch a.Env {
	case "", "dev", "local":
		return "debug"
	case "test":
		return "test"
	}
	return "release"
}

type LogRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate LogRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Cache 商品详情缓存：本地 LRU + redis
type Cache struct {
	Enable      bool
	TTLSec      int
	LocalSize   int
	LocalTTLSec int
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Storage driver: minio | memory
type Storage struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type VnPay struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

type Momo struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IpnURL      string
}

type Payment struct {
	VnPay VnPay
	Momo  Momo
}

type GHN struct {
	Enable         bool
	BaseURL        string
	Token          string
	ShopID         int
	FromDistrictID int
	FromWardCode   string
	TimeoutSec     int
}

type Flat struct {
	BaseFee       string
	PerKgFee      string
	FreeThreshold string
}

type Shipping struct {
	GHN  GHN
	Flat Flat
}

type SMTP struct {
	Enable   bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Audit mode: async（进程内 channel）| queue（asynq）
type Audit struct {
	Mode       string
	BufferSize int
}

type Worker struct {
	Concurrency      int
	Background       int64
	StaleImageCron   string
	StaleImageMaxAge int
}

// Bootstrap 管理端启动时创建/提升的管理员；留空则跳过
type Bootstrap struct {
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Cache     Cache
	Storage   Storage
	Payment   Payment
	Shipping  Shipping
	SMTP      SMTP
	Audit     Audit
	Worker    Worker
	Bootstrap Bootstrap
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "anime-shop")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "anime-shop")
	v.SetDefault("jwt.accessTokenTTLMin", 120)
	v.SetDefault("cache.ttlSec", 300)
	v.SetDefault("cache.localSize", 1024)
	v.SetDefault("cache.localTTLSec", 30)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("shipping.flat.baseFee", "30000")
	v.SetDefault("shipping.flat.perKgFee", "5000")
	v.SetDefault("shipping.ghn.timeoutSec", 5)
	v.SetDefault("audit.mode", "async")
	v.SetDefault("audit.bufferSize", 256)
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.background", 16)
	v.SetDefault("worker.staleImageCron", "@every 1h")
	v.SetDefault("worker.staleImageMaxAge", 24)
}

// Read 读取配置文件并叠加 APP_ 前缀环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatal(err)
	}
	return c
}
