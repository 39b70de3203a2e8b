package config

// ServiceConf 全局服务配置，由 internal/conf.LoadConfig 填充
// pkg/db 下的所有连接都依赖它
var ServiceConf *ServiceConfig

type RedisConfig struct {
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	User     string `mapstructure:"user" json:"user"`
	PassWord string `mapstructure:"passWord" json:"passWord"`
	DB       int    `mapstructure:"db" json:"db"`
}

// StoreConfig 托管文章库连接配置
// Driver 支持 postgres (Supabase 托管库) 与 mysql (自建库)
type StoreConfig struct {
	Driver   string `mapstructure:"driver" json:"driver"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	DbName   string `mapstructure:"dbname" json:"dbname"`
	LogLevel string `mapstructure:"logLevel" json:"logLevel"`
}

type MongoDB struct {
	Link string `mapstructure:"link" json:"link"`
}

type ServiceConfig struct {
	DB      StoreConfig `mapstructure:"store" json:"store"`
	RedisDB RedisConfig `mapstructure:"redis" json:"redis"`
	Mongo   MongoDB     `mapstructure:"mongo" json:"mongo"`
}
