// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "audiopipe")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "audiopipe.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("audio.source", "sysdefault")
	viper.SetDefault("audio.samplerate", 48000)
	viper.SetDefault("audio.channels", 1)
	viper.SetDefault("audio.bitdepth", 16)

	viper.SetDefault("capture.waittimeout", time.Second)
	viper.SetDefault("capture.overrunpolicy", OverrunDrop)
	viper.SetDefault("capture.priority", PriorityNormal)
}
