package config

import "time"

// Config is the root application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"CASEOBSERVER_API_URL"        env-default:"http://localhost:8080"`
	Timeout   time.Duration `yaml:"timeout"    env:"CASEOBSERVER_API_TIMEOUT"    env-default:"15s"`
	UserAgent string        `yaml:"user_agent" env:"CASEOBSERVER_API_USER_AGENT" env-default:"caseobserver-cli"`
}

// Session storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// SessionConfig holds credential persistence and session lifecycle settings.
//
// ID plays the role of a browser tab: tokens persisted under one ID survive
// process restarts, but are invisible to any other ID.
type SessionConfig struct {
	ID               string        `yaml:"id"                 env:"CASEOBSERVER_SESSION_ID"                 env-default:"default"`
	Storage          string        `yaml:"storage"            env:"CASEOBSERVER_SESSION_STORAGE"            env-default:"file"`
	Dir              string        `yaml:"dir"                env:"CASEOBSERVER_SESSION_DIR"`
	Key              string        `yaml:"key"                env:"CASEOBSERVER_SESSION_KEY"                env-default:"auth_tokens"`
	TTL              time.Duration `yaml:"ttl"                env:"CASEOBSERVER_SESSION_TTL"                env-default:"24h"`
	EncryptionKey    string        `yaml:"encryption_key"     env:"CASEOBSERVER_SESSION_ENCRYPTION_KEY"`
	ProfileRetries   int           `yaml:"profile_retries"    env:"CASEOBSERVER_SESSION_PROFILE_RETRIES"    env-default:"3"`
	ProfileRetryBase time.Duration `yaml:"profile_retry_base" env:"CASEOBSERVER_SESSION_PROFILE_RETRY_BASE" env-default:"500ms"`
	RefreshSkew      time.Duration `yaml:"refresh_skew"       env:"CASEOBSERVER_SESSION_REFRESH_SKEW"       env-default:"30s"`
}

// RedisConfig holds the connection settings of the redis session storage.
type RedisConfig struct {
	Addr         string        `yaml:"addr"          env:"CASEOBSERVER_REDIS_ADDR"`
	Password     string        `yaml:"password"      env:"CASEOBSERVER_REDIS_PASSWORD"`
	DB           int           `yaml:"db"            env:"CASEOBSERVER_REDIS_DB"            env-default:"0"`
	KeyPrefix    string        `yaml:"key_prefix"    env:"CASEOBSERVER_REDIS_KEY_PREFIX"    env-default:"caseobserver:session:"`
	DialTimeout  time.Duration `yaml:"dial_timeout"  env:"CASEOBSERVER_REDIS_DIAL_TIMEOUT"  env-default:"3s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"CASEOBSERVER_REDIS_READ_TIMEOUT"  env-default:"2s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"CASEOBSERVER_REDIS_WRITE_TIMEOUT" env-default:"2s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"CASEOBSERVER_LOG_LEVEL"  env-default:"warn"`
	Format string `yaml:"format" env:"CASEOBSERVER_LOG_FORMAT" env-default:"text"`
}
