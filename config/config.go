package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ServerConfig holds everything the position relay reads at startup. Values
// come from config/server.yaml, with defaults matching the shipped tuning so
// the server also runs without a config file.
type ServerConfig struct {
	BindAddress string
	DebugMode   bool

	WorldWidth  uint32
	WorldHeight uint32
	SpawnX      float32
	SpawnY      float32

	ProbeIntervalS int
	ReapIntervalS  int
	PlayerTimeoutS int
}

func LoadServerConfig() (sc *ServerConfig, err error) {
	viper.GetViper().AddConfigPath("config/")
	viper.SetConfigName("server")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.bindAddress", "0.0.0.0:5000")
	viper.SetDefault("server.debugMode", false)
	viper.SetDefault("world.width", 1920)
	viper.SetDefault("world.height", 1080)
	viper.SetDefault("world.spawnX", 600.0)
	viper.SetDefault("world.spawnY", 700.0)
	viper.SetDefault("liveness.probeIntervalS", 3)
	viper.SetDefault("liveness.reapIntervalS", 5)
	viper.SetDefault("liveness.playerTimeoutS", 10)

	if err = viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			err = errors.Wrap(err, "failed to read server config")
			return
		}
		err = nil
	}

	sc = &ServerConfig{
		BindAddress:    viper.GetString("server.bindAddress"),
		DebugMode:      viper.GetBool("server.debugMode"),
		WorldWidth:     viper.GetUint32("world.width"),
		WorldHeight:    viper.GetUint32("world.height"),
		SpawnX:         float32(viper.GetFloat64("world.spawnX")),
		SpawnY:         float32(viper.GetFloat64("world.spawnY")),
		ProbeIntervalS: viper.GetInt("liveness.probeIntervalS"),
		ReapIntervalS:  viper.GetInt("liveness.reapIntervalS"),
		PlayerTimeoutS: viper.GetInt("liveness.playerTimeoutS"),
	}

	return
}
