package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CorsAllowOrigins   []string      `mapstructure:"cors_allow_origins"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 媒体存储配置
	MediaStoreType     string        `mapstructure:"media_store_type"`
	MediaPublicBaseURL string        `mapstructure:"media_public_base_url"`
	MediaTimeout       time.Duration `mapstructure:"media_timeout"`
	MediaFolder        string        `mapstructure:"media_folder"`

	MediaLocalPath string `mapstructure:"media_local_path"`

	MediaMinioEndpoint        string `mapstructure:"media_minio_endpoint"`
	MediaMinioAccessKeyID     string `mapstructure:"media_minio_access_key_id"`
	MediaMinioSecretAccessKey string `mapstructure:"media_minio_secret_access_key"`
	MediaMinioUseSSL          bool   `mapstructure:"media_minio_use_ssl"`
	MediaMinioBucket          string `mapstructure:"media_minio_bucket"`

	MediaWebDAVURL      string `mapstructure:"media_webdav_url"`
	MediaWebDAVUsername string `mapstructure:"media_webdav_username"`
	MediaWebDAVPassword string `mapstructure:"media_webdav_password"`
	MediaWebDAVRootPath string `mapstructure:"media_webdav_root_path"`

	MediaS3Endpoint        string `mapstructure:"media_s3_endpoint"`
	MediaS3Region          string `mapstructure:"media_s3_region"`
	MediaS3Bucket          string `mapstructure:"media_s3_bucket"`
	MediaS3AccessKeyID     string `mapstructure:"media_s3_access_key_id"`
	MediaS3SecretAccessKey string `mapstructure:"media_s3_secret_access_key"`
	MediaS3SessionToken    string `mapstructure:"media_s3_session_token"`
	MediaS3ForcePathStyle  bool   `mapstructure:"media_s3_force_path_style"`
	MediaS3Prefix          string `mapstructure:"media_s3_prefix"`

	MediaOSSEndpoint        string `mapstructure:"media_oss_endpoint"`
	MediaOSSBucket          string `mapstructure:"media_oss_bucket"`
	MediaOSSAccessKeyID     string `mapstructure:"media_oss_access_key_id"`
	MediaOSSAccessKeySecret string `mapstructure:"media_oss_access_key_secret"`
	MediaOSSPrefix          string `mapstructure:"media_oss_prefix"`

	MediaCOSBucketURL string `mapstructure:"media_cos_bucket_url"`
	MediaCOSSecretID  string `mapstructure:"media_cos_secret_id"`
	MediaCOSSecretKey string `mapstructure:"media_cos_secret_key"`
	MediaCOSPrefix    string `mapstructure:"media_cos_prefix"`

	// 缓存提供者配置
	CacheType          string `mapstructure:"cache_type"`
	CacheRedisAddr     string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string `mapstructure:"cache_redis_password"`
	CacheRedisDB       int    `mapstructure:"cache_redis_db"`
	CachePhotoTTL      int    `mapstructure:"cache_photo_ttl"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitMediaRPS   float64       `mapstructure:"rate_limit_media_rps"`
	RateLimitMediaBurst int           `mapstructure:"rate_limit_media_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// JWT 配置
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiresIn time.Duration `mapstructure:"jwt_expires_in"`

	// 上传与标签配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`
	TagsMaxCount    int `mapstructure:"tags_max_count"`

	// Worker 配置
	WorkerCount int `mapstructure:"worker_count"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	if strings.HasSuffix(configFile, ".env") {
		viper.SetConfigType("env")
	}

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	globalConfig.normalize()
}

// normalize 修正非法或缺省的配置值
func (c *Config) normalize() {
	// WorkerCount: -1 = 使用 CPU 线程数, 0 = 使用默认值 (max(2, CPU核心数)), >0 = 使用指定值
	switch {
	case c.WorkerCount < 0:
		c.WorkerCount = runtime.GOMAXPROCS(0)
	case c.WorkerCount == 0:
		c.WorkerCount = getCpus()
	}

	if c.TagsMaxCount <= 0 {
		c.TagsMaxCount = 5
	}
	if c.MediaTimeout <= 0 {
		c.MediaTimeout = 30 * time.Second
	}
	c.MediaPublicBaseURL = strings.TrimRight(c.MediaPublicBaseURL, "/")
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "60s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("cors_allow_origins", []string{"*"})

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "photo-bed")
	viper.SetDefault("db_file_path", "./data/photos.db")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 媒体存储默认值
	viper.SetDefault("media_store_type", "local")
	viper.SetDefault("media_public_base_url", "")
	viper.SetDefault("media_timeout", "30s")
	viper.SetDefault("media_folder", "photos")
	viper.SetDefault("media_local_path", "./data/media")
	viper.SetDefault("media_minio_use_ssl", false)
	viper.SetDefault("media_minio_bucket", "photo-bed")
	viper.SetDefault("media_s3_region", "us-east-1")

	// 缓存提供者配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_photo_ttl", 3600)

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_media_rps", 100.0)
	viper.SetDefault("rate_limit_media_burst", 200)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// JWT 默认值
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_expires_in", "24h")

	viper.SetDefault("upload_max_size_mb", 50)
	viper.SetDefault("tags_max_count", 5)

	// Worker 配置默认值
	viper.SetDefault("worker_count", 0) // 0 表示使用默认值

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// MediaBaseURL 返回媒体资源的公开访问前缀，未配置时使用本服务的 /media 路由
func (c *Config) MediaBaseURL() string {
	if c.MediaPublicBaseURL != "" {
		return c.MediaPublicBaseURL
	}
	return c.BaseURL() + "/media"
}

// UploadMaxBytes 返回单个上传文件的最大字节数
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 50 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
