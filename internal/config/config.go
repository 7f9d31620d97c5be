package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "CYLINDERTRACK_"

// 存储驱动
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Storage  StorageConfig  `toml:"storage"`
	Business BusinessConfig `toml:"business"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir    string `toml:"data_dir"`
	AutoBackup bool   `toml:"auto_backup"`
}

// StorageConfig 键值存储配置
type StorageConfig struct {
	Driver          string `toml:"driver"`
	SQLiteFile      string `toml:"sqlite_file"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	DefaultCylinderPrice float64 `toml:"default_cylinder_price"`
	Timezone             string  `toml:"timezone"`
	DeliveryKeyPrefix    string  `toml:"delivery_key_prefix"`
	NodeID               int64   `toml:"node_id"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:    "data",
			AutoBackup: true,
		},
		Storage: StorageConfig{
			Driver:          DriverSQLite,
			SQLiteFile:      "cylindertrack.db",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "cylindertrack",
			MongoCollection: "kv",
			TimeoutSeconds:  5,
		},
		Business: BusinessConfig{
			DefaultCylinderPrice: 877.5,
			Timezone:             "Asia/Kolkata",
			DeliveryKeyPrefix:    "deliveries_",
			NodeID:               1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Timeout 存储单次操作超时
func (c StorageConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location 业务时区，解析失败回退到本地时区
func (c BusinessConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory, DriverMongo:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Business.DefaultCylinderPrice <= 0 {
		return fmt.Errorf("business.default_cylinder_price must be positive")
	}
	if c.Business.DeliveryKeyPrefix == "" {
		return fmt.Errorf("business.delivery_key_prefix must not be empty")
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
// 配置文件位于可执行文件同目录下，同目录 .env 与环境变量覆盖文件值
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFrom(exeDir)
}

// LoadFrom 从指定目录加载 config.toml 与 .env
func LoadFrom(dir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: filepath.Join(dir, "config.toml")}
	config := DefaultConfig()

	// .env 不存在时忽略；已存在的环境变量不会被覆盖
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	data, err := os.ReadFile(info.Path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", info.Path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（CYLINDERTRACK_*）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	if _, ok := os.LookupEnv(EnvPrefix + "PORT"); ok {
		info.PortSpecified = true
	}
	if err := num("PORT", &config.Server.Port); err != nil {
		return err
	}
	if err := flag("DEV_MODE", &config.Server.DevMode); err != nil {
		return err
	}
	str("DATA_DIR", &config.Data.DataDir)
	if err := flag("AUTO_BACKUP", &config.Data.AutoBackup); err != nil {
		return err
	}
	str("STORE", &config.Storage.Driver)
	str("SQLITE_FILE", &config.Storage.SQLiteFile)
	str("MONGO_URI", &config.Storage.MongoURI)
	str("MONGO_DATABASE", &config.Storage.MongoDatabase)
	str("MONGO_COLLECTION", &config.Storage.MongoCollection)
	if err := num("STORE_TIMEOUT_SECONDS", &config.Storage.TimeoutSeconds); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEFAULT_CYLINDER_PRICE"); ok && v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDEFAULT_CYLINDER_PRICE: %w", EnvPrefix, err)
		}
		config.Business.DefaultCylinderPrice = price
	}
	str("TIMEZONE", &config.Business.Timezone)
	str("LOG_LEVEL", &config.Log.Level)
	str("LOG_FORMAT", &config.Log.Format)
	return nil
}

// SaveConfig 保存配置到可执行文件同目录的 config.toml
func SaveConfig(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return SaveTo(exeDir, config)
}

// SaveTo 保存配置到指定目录的 config.toml，返回文件路径
func SaveTo(dir string, config *AppConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ResolveDataDir 数据目录：绝对路径原样使用，相对路径基于可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
