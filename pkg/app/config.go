package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/uvm/pkg/log"
)

const configFlagName = "config"

var cfgFile string

// addConfigFlag registers --config and prepares viper to read the file and
// environment variables prefixed with the application name.
func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile, "Read configuration from specified `FILE`, "+
		"support JSON, TOML, YAML, HCL, or Java properties formats.")

	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix(basename))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// envPrefix turns "uvm-boot" into "UVM".
func envPrefix(basename string) string {
	name, _, _ := strings.Cut(basename, "-")
	return strings.ToUpper(name)
}

// loadConfig reads the config file named by --config, or the first
// {basename}.* found in the search path.
func loadConfig(basename string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, "."+envPrefix(basename)))
		}
		viper.AddConfigPath(filepath.Join("/etc", strings.ToLower(envPrefix(basename))))
		viper.SetConfigName(basename)
	}

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile == "" && errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file(%s): %w", cfgFile, err)
	}
	return nil
}

// watchConfig follows edits of the config file in use. Only log.level is
// applied live; the platform is assembled once at boot and keeps its devices
// until the next start.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	log.Info("Using config file", "file", viper.ConfigFileUsed())
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Warn("Config file changed; device settings apply on next start",
			"file", e.Name, "op", e.Op.String())
		applyLogLevel(viper.GetString(logLevelKey))
	})
	viper.WatchConfig()
}

const logLevelKey = "log.level"

func applyLogLevel(level string) {
	if level == "" {
		return
	}
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring log level from config file")
		return
	}
	log.Info("Log level changed", "level", level)
}
