package conf

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	pkgconf "github.com/teDdyMucho/groundstandard/pkg/config"
)

type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Webhooks WebhookConfig         `mapstructure:"webhooks"`
	Watch    WatchConfig           `mapstructure:"watch"`
	Chat     ChatConfig            `mapstructure:"chat"`
	Service  pkgconf.ServiceConfig `mapstructure:"service"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// WebhookConfig 外部工作流的各命令端点
type WebhookConfig struct {
	Research  string `mapstructure:"research"`
	Write     string `mapstructure:"write"`
	Rewrite   string `mapstructure:"rewrite"`
	CreateTag string `mapstructure:"create_tag"`
	Chat      string `mapstructure:"chat"`
}

type WatchConfig struct {
	// Cron 轮询间隔，robfig/cron 表达式，如 "@every 5s"
	Cron string `mapstructure:"cron"`
}

type ChatConfig struct {
	// SensitiveDict 敏感词词典路径，空则不启用筛查
	SensitiveDict string `mapstructure:"sensitive_dict"`
	// HistoryDB 聊天记录库名，空则不落库
	HistoryDB string `mapstructure:"history_db"`
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv() // 自动读取环境变量

	// 允许环境变量替换 YAML 中的 ${VAR}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 显式展开环境变量
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	// pkg/db 的连接走全局 ServiceConf
	pkgconf.ServiceConf = &c.Service

	if c.Watch.Cron == "" {
		c.Watch.Cron = "@every 5s"
	}
	return &c, nil
}
