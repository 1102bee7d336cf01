// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell 注入）
//  2. YAML 配置文件（configs/{env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在 .env 文件或环境变量中（YAML 中不存储任何密码）。
//
// 环境：
//   - 开发: APP_ENV=dev（默认）→ configs/dev.yaml
//   - 测试: APP_ENV=test → configs/test.yaml
//   - 生产: APP_ENV=prod → configs/prod.yaml
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Media    MediaConfig    `yaml:"media"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig MongoDB 配置
// URI 可被 MONGO_URI 环境变量覆盖
type DatabaseConfig struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

// RedisConfig Redis 缓存配置（可选，缺省时目录缓存退化为 NoOp）
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// MediaConfig 媒体地址配置
//
// URLPrefix 是课程视频地址必须携带的前缀，也是上传返回地址的拼接基准。
type MediaConfig struct {
	URLPrefix string `yaml:"url_prefix"`
}

// AuthConfig 认证配置
// 注意：JWTSecret 和管理员凭据只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret      string `yaml:"-"`                // 只从 SECRET_KEY 环境变量读取
	AccessTokenTTL string `yaml:"access_token_ttl"` // 例如 "168h"
	AdminUsername  string `yaml:"-"`                // 只从 ADMIN_USERNAME 环境变量读取
	AdminEmail     string `yaml:"-"`                // 只从 ADMIN_EMAIL 环境变量读取
	AdminPassword  string `yaml:"-"`                // 只从 ADMIN_PASSWORD 环境变量读取
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	APIPort        string
	MongoURI       string
	MongoDBName    string
	RedisURL       string
	MinIO          MinIOConfig
	MediaURLPrefix string
	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminUsername  string
	AdminEmail     string
	AdminPassword  string
}
