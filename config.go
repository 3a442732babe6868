package pika

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _pikaconfig{}
)

// _pikaconfig is a "hidden" struct, just use `pikaConfig`
type _pikaconfig struct {
	bodyFile string
}

// pikaConfig returns the pika configuration, loading it on first use.
func pikaConfig() _pikaconfig {
	if cfgLoaded {
		return config
	}
	confPath := os.Getenv("PIKA_CONFIG")
	if confPath == "" {
		panic("environment variable `PIKA_CONFIG` is missing or empty")
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}
	bodyFile := viper.GetString("data.bodies")
	if !filepath.IsAbs(bodyFile) {
		bodyFile = filepath.Join(confPath, bodyFile)
	}
	cfgLoaded = true
	config = _pikaconfig{bodyFile: bodyFile}
	return config
}
