package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dmsclient "github.com/MrEthical07/dmsclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DMSCTL"

// Flag and config keys. Environment variables use the DMSCTL_ prefix with
// dashes turned into underscores.
const (
	keyConfig     = "config"
	keyBaseURL    = "base-url"
	keyTimeout    = "timeout"
	keyTokenFile  = "token-file"
	keyRoutesFile = "routes-file"
	keyLogLevel   = "log-level"
	keyRefresh    = "refresh"
	keyJSON       = "json"
)

func bindFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	def := dmsclient.DefaultConfig()
	fs.String(keyConfig, "", "config file (default $XDG_CONFIG_HOME/dmsctl/dmsctl.yaml)")
	fs.String(keyBaseURL, def.Transport.BaseURL, "backend API base URL")
	fs.Duration(keyTimeout, def.Transport.Timeout, "request timeout")
	fs.String(keyTokenFile, defaultTokenFile(), "file that keeps the access token between runs")
	fs.String(keyRoutesFile, "", "YAML route table used by navigate")
	fs.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	fs.Bool(keyRefresh, false, "keep the token fresh while a command runs")
	fs.Bool(keyJSON, false, "print JSON instead of text")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".dmsctl", "token.yaml")
	}
	return filepath.Join(dir, "dmsctl", "token.yaml")
}

// loadViper layers flags, DMSCTL_* environment variables and an optional
// config file, in that order of precedence.
func loadViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("dmsctl")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "dmsctl"))
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// clientConfig maps the layered settings onto a client configuration.
func clientConfig(v *viper.Viper) (dmsclient.Config, error) {
	cfg := dmsclient.DefaultConfig()
	cfg.Transport.BaseURL = v.GetString(keyBaseURL)
	cfg.Transport.Timeout = v.GetDuration(keyTimeout)
	cfg.Transport.UserAgent = "dmsctl/" + version
	cfg.TokenStore.Kind = dmsclient.TokenStoreFile
	cfg.TokenStore.FilePath = v.GetString(keyTokenFile)
	cfg.Navigation.RoutesFile = v.GetString(keyRoutesFile)
	cfg.Refresh.Enabled = v.GetBool(keyRefresh)

	if dir := filepath.Dir(cfg.TokenStore.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return dmsclient.Config{}, fmt.Errorf("create token dir: %w", err)
		}
	}
	return cfg, cfg.Validate()
}
