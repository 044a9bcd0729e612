package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix    = "PORTFOLIO"
	envConfigDir = "PORTFOLIO_CONFIG_DIR"
)

type ViperLoader struct {
	v                     *viper.Viper
	configDir             string
	watch                 bool
	once                  sync.Once
	mu                    sync.RWMutex
	cfg                   *Config
	configChangeCallbacks []func(*Config)
}

func NewViperLoader() (*ViperLoader, error) {
	dir := os.Getenv(envConfigDir)
	if dir == "" {
		dir = "cfg/yaml"
	}
	return &ViperLoader{
		v:                     viper.New(),
		configDir:             dir,
		watch:                 true,
		configChangeCallbacks: make([]func(*Config), 0),
	}, nil
}

// WithConfigDir overrides the directory holding mode.yaml.
func (vl *ViperLoader) WithConfigDir(dir string) *ViperLoader {
	vl.configDir = dir
	return vl
}

// WithWatch toggles hot reload of the config file.
func (vl *ViperLoader) WithWatch(watch bool) *ViperLoader {
	vl.watch = watch
	return vl
}

func (vl *ViperLoader) Load() (*Config, error) {
	var err error
	vl.once.Do(func() {
		err = vl.loadConfig()
		if err == nil && vl.IsWatchChange() {
			vl.v.OnConfigChange(func(e fsnotify.Event) {
				fmt.Printf("[INFO][CONFIG] Config file changed: %s\n", e.Name)
				if errReload := vl.reloadConfig(); errReload != nil {
					fmt.Printf("[ERROR][CONFIG] Failed to reload config: %v\n", errReload)
				}
			})
			vl.v.WatchConfig()
		}
	})

	if err != nil {
		return nil, err
	}

	vl.mu.RLock()
	defer vl.mu.RUnlock()
	return vl.cfg, nil
}

func (vl *ViperLoader) IsWatchChange() bool {
	return vl.watch
}

func (vl *ViperLoader) RegisterConfigChangeCallback(callback func(*Config)) {
	vl.mu.Lock()
	vl.configChangeCallbacks = append(vl.configChangeCallbacks, callback)
	vl.mu.Unlock()
}

func (vl *ViperLoader) loadConfig() error {
	// .env is optional, it usually only carries the access token
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[ERROR][CONFIG] failed to read .env: %w", err)
	}

	vl.v.AddConfigPath(vl.configDir)
	vl.v.SetConfigName("mode")
	vl.v.SetConfigType("yaml")
	vl.v.SetEnvPrefix(envPrefix)
	vl.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vl.v.AutomaticEnv()
	if err := vl.v.ReadInConfig(); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to read config file: %w", err)
	}

	cfg, err := vl.unmarshal()
	if err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config: %w", err)
	}

	vl.mu.Lock()
	vl.cfg = cfg
	vl.mu.Unlock()

	return nil
}

func (vl *ViperLoader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := vl.v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	// The token never lives in the yaml file
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && cfg.GithubApi.AccessToken == "" {
		cfg.GithubApi.AccessToken = token
	}
	cfg.Defaults()
	return cfg, nil
}

func (vl *ViperLoader) reloadConfig() error {
	cfg, err := vl.unmarshal()
	if err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config during reload: %w", err)
	}

	vl.mu.Lock()
	vl.cfg = cfg
	callbacks := make([]func(*Config), len(vl.configChangeCallbacks))
	copy(callbacks, vl.configChangeCallbacks)
	vl.mu.Unlock()

	for _, callback := range callbacks {
		go callback(cfg)
	}

	fmt.Println("[INFO][CONFIG] Configuration reloaded successfully")
	return nil
}
