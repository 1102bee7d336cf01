package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAccessTokenTTL 令牌默认有效期（7 天）
const DefaultAccessTokenTTL = 7 * 24 * time.Hour

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖 YAML，构建最终配置
func Load() *Config {
	// godotenv.Load 不覆盖已有环境变量，shell 注入的值优先
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:            env,
		APIPort:        getEnv("PORT", yamlCfg.Server.Port),
		MongoURI:       getEnv("MONGO_URI", yamlCfg.Database.URI),
		MongoDBName:    getEnv("MONGO_DB_NAME", yamlCfg.Database.Name),
		RedisURL:       getEnv("REDIS_URL", yamlCfg.Redis.URL),
		MediaURLPrefix: getEnv("MEDIA_URL_PREFIX", yamlCfg.Media.URLPrefix),
		JWTSecret:      os.Getenv("SECRET_KEY"),
		AccessTokenTTL: parseTTL(yamlCfg.Auth.AccessTokenTTL),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
			AccessKey: os.Getenv("MINIO_ROOT_USER"),
			SecretKey: os.Getenv("MINIO_ROOT_PASSWORD"),
			UseSSL:    yamlCfg.MinIO.UseSSL,
			Bucket:    yamlCfg.MinIO.Bucket,
		},
	}

	return cfg
}

// Validate 校验启动必需项
//
// 签名密钥和数据库地址缺失属于致命配置错误，由调用方终止进程。
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	return nil
}

// HasRedis 是否配置了 Redis 缓存
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// HasMinIO 是否配置了对象存储（缺失时上传接口不可用）
func (c *Config) HasMinIO() bool {
	return c.MinIO.Endpoint != "" && c.MinIO.AccessKey != "" && c.MinIO.SecretKey != ""
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// IsDevelopment 是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s, MinIO: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDBName, maskPassword(c.RedisURL), c.MinIO.Endpoint)
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8000"},
		Database: DatabaseConfig{Name: "course_market"},
		MinIO:    MinIOConfig{Bucket: "course-videos"},
		Media:    MediaConfig{URLPrefix: "http://localhost:9000/course-videos/"},
		Auth:     AuthConfig{AccessTokenTTL: "168h"},
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// parseTTL 解析令牌有效期，非法值回退到默认 7 天
func parseTTL(s string) time.Duration {
	if s == "" {
		return DefaultAccessTokenTTL
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return DefaultAccessTokenTTL
	}
	return d
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maskPassword 隐藏连接串里的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
