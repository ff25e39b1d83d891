// Package config reads scout_helper.cfg.json through viper and exposes
// typed views of each section.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "scout_helper.cfg.json"

// BearConfig holds the Bear Toolkit API settings.
type BearConfig struct {
	APIBaseURL   string        `json:"apiBaseUrl" mapstructure:"apiBaseUrl"`
	TrainPath    string        `json:"trainPath" mapstructure:"trainPath"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	SiteTrainURL string        `json:"siteTrainUrl" mapstructure:"siteTrainUrl"`
	TrainName    string        `json:"trainName" mapstructure:"trainName"`
}

// SirenConfig holds the Siren Hunts link settings.
type SirenConfig struct {
	BaseURL string `json:"baseUrl" mapstructure:"baseUrl"`
}

// TurtleConfig holds the Turtle scouting API settings.
type TurtleConfig struct {
	APIBaseURL   string        `json:"apiBaseUrl" mapstructure:"apiBaseUrl"`
	TrainPath    string        `json:"trainPath" mapstructure:"trainPath"`
	OccupiedPath string        `json:"occupiedPath" mapstructure:"occupiedPath"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	UpdateUser   string        `json:"updateUser" mapstructure:"updateUser"`
}

// CopyConfig controls the text placed on the clipboard.
type CopyConfig struct {
	Template string `json:"template" mapstructure:"template"`
	FullText bool   `json:"fullText" mapstructure:"fullText"`
}

// DataConfig locates the reference data files.
type DataConfig struct {
	Dir   string `json:"dir" mapstructure:"dir"`
	Watch bool   `json:"watch" mapstructure:"watch"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Type     string   `json:"type" mapstructure:"type"`
	Path     string   `json:"path" mapstructure:"path"`
	Postgres DBConfig `json:"db" mapstructure:"db"`
}

// SetDefaults registers every default value. Load calls it; tests that
// skip the config file may call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("bear.apiBaseUrl", "https://tracker-api.beartoolkit.com/public/")
	viper.SetDefault("bear.trainPath", "hunttrain")
	viper.SetDefault("bear.timeout", "10s")
	viper.SetDefault("bear.siteTrainUrl", "https://tracker.beartoolkit.com/train")
	viper.SetDefault("bear.trainName", "Scout Helper Train")

	viper.SetDefault("siren.baseUrl", "https://sirenhunts.com/scouting/")

	viper.SetDefault("turtle.apiBaseUrl", "https://scout.wobbuffet.net")
	viper.SetDefault("turtle.trainPath", "/api/v1/scout")
	viper.SetDefault("turtle.occupiedPath", "/api/v1/scout/{slug}/occupied")
	viper.SetDefault("turtle.timeout", "5s")
	viper.SetDefault("turtle.updateUser", "")

	viper.SetDefault("copy.template", "{patch} {#}/{#max} {world} [{tracker}]({link})")
	viper.SetDefault("copy.fullText", false)

	viper.SetDefault("data.dir", "./data")
	viper.SetDefault("data.watch", true)

	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.path", "./scout_helper.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "scouthelper")
}

// Load reads configuration from the JSON file in configDir and sets default
// values.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Watch re-reads the config file on change and calls onChange afterwards.
func Watch(onChange func()) {
	viper.OnConfigChange(func(fsnotify.Event) {
		if onChange != nil {
			onChange()
		}
	})
	viper.WatchConfig()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetBearConfig returns the Bear settings.
func GetBearConfig() BearConfig {
	return BearConfig{
		APIBaseURL:   viper.GetString("bear.apiBaseUrl"),
		TrainPath:    viper.GetString("bear.trainPath"),
		Timeout:      viper.GetDuration("bear.timeout"),
		SiteTrainURL: viper.GetString("bear.siteTrainUrl"),
		TrainName:    viper.GetString("bear.trainName"),
	}
}

// GetSirenConfig returns the Siren settings.
func GetSirenConfig() SirenConfig {
	return SirenConfig{BaseURL: viper.GetString("siren.baseUrl")}
}

// GetTurtleConfig returns the Turtle settings.
func GetTurtleConfig() TurtleConfig {
	return TurtleConfig{
		APIBaseURL:   viper.GetString("turtle.apiBaseUrl"),
		TrainPath:    viper.GetString("turtle.trainPath"),
		OccupiedPath: viper.GetString("turtle.occupiedPath"),
		Timeout:      viper.GetDuration("turtle.timeout"),
		UpdateUser:   viper.GetString("turtle.updateUser"),
	}
}

// GetCopyConfig returns the clipboard settings.
func GetCopyConfig() CopyConfig {
	return CopyConfig{
		Template: viper.GetString("copy.template"),
		FullText: viper.GetBool("copy.fullText"),
	}
}

// GetDataConfig returns the reference data settings.
func GetDataConfig() DataConfig {
	return DataConfig{
		Dir:   viper.GetString("data.dir"),
		Watch: viper.GetBool("data.watch"),
	}
}

// GetStoreConfig returns the session store settings.
func GetStoreConfig() StoreConfig {
	return StoreConfig{
		Type: viper.GetString("store.type"),
		Path: viper.GetString("store.path"),
		Postgres: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInstances returns the instance count per territory id. Entries that
// are not positive integers are skipped; territories not listed have one
// instance.
func GetInstances() map[uint]uint {
	raw := viper.GetStringMap("instances")
	out := make(map[uint]uint, len(raw))
	for key := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			continue
		}
		n := viper.GetInt("instances." + key)
		if n <= 0 {
			continue
		}
		out[uint(id)] = uint(n)
	}
	return out
}
