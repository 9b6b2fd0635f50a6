package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Player  PlayerConfig  `mapstructure:"player"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	TCPAddress   string        `mapstructure:"tcp_address"`
	HTTPAddress  string        `mapstructure:"http_address"`
	RPCAddress   string        `mapstructure:"rpc_address"`
	MaxPlayers   int           `mapstructure:"max_players"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	CommandRate  float64       `mapstructure:"command_rate"`
	CommandBurst int           `mapstructure:"command_burst"`
}

type GameConfig struct {
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	RoundInterval    time.Duration `mapstructure:"round_interval"`
	GravityTicks     int           `mapstructure:"gravity_ticks"`
	LockDelayTicks   int           `mapstructure:"lock_delay_ticks"`
	GarbageMilestone int           `mapstructure:"garbage_milestone"`
	// Authority is "host" (host simulates every field) or "peer" (each
	// peer simulates its own field and uploads it).
	Authority     string        `mapstructure:"authority"`
	MatchDuration time.Duration `mapstructure:"match_duration"`
	AutoStart     bool          `mapstructure:"auto_start"`
	Debug         bool          `mapstructure:"debug"`
}

type PlayerConfig struct {
	Name string `mapstructure:"name"`
}

type MonitorConfig struct {
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	AuthorityHost = "host"
	AuthorityPeer = "peer"
)

var ErrInvalidAuthority = errors.New("config: game.authority must be host or peer")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.tcp_address", ":1337")
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":1338")
	v.SetDefault("server.max_players", 8)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.command_rate", 60.0)
	v.SetDefault("server.command_burst", 30)

	v.SetDefault("game.tick_interval", 33*time.Millisecond)
	v.SetDefault("game.round_interval", 30*time.Millisecond)
	v.SetDefault("game.gravity_ticks", 10)
	v.SetDefault("game.lock_delay_ticks", 30)
	v.SetDefault("game.garbage_milestone", 150)
	v.SetDefault("game.authority", AuthorityHost)
	v.SetDefault("game.match_duration", time.Duration(0))
	v.SetDefault("game.auto_start", false)
	v.SetDefault("game.debug", false)

	v.SetDefault("player.name", "player")

	v.SetDefault("monitor.address", ":9090")
	v.SetDefault("monitor.namespace", "kolortris")

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and KOLORTRIS_* environment variables apply either way.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("kolortris")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Game.Authority {
	case AuthorityHost, AuthorityPeer:
	default:
		return ErrInvalidAuthority
	}
	if c.Server.MaxPlayers <= 0 {
		return errors.New("config: server.max_players must be positive")
	}
	if c.Game.GarbageMilestone <= 0 {
		return errors.New("config: game.garbage_milestone must be positive")
	}
	return nil
}
