package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/viper"
)

type env struct {
	DBUrl            string `mapstructure:"DB_URL"`
	Port             uint   `mapstructure:"PORT"`
	GridWidth        uint   `mapstructure:"GRID_WIDTH"`
	GridHeight       uint   `mapstructure:"GRID_HEIGHT"`
	UpdatesPerSecond uint   `mapstructure:"UPDATES_PER_SECOND"`
}

type Config struct {
	env *env
}

var cfgInstance *Config

// NewConfig loads the .env configuration. Invalid values are a caller error
// and are rejected here, before the engine is ever constructed.
func NewConfig() *Config {
	if cfgInstance != nil {
		return cfgInstance
	}

	viper.AddConfigPath(".")
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.SetDefault("GRID_WIDTH", 100)
	viper.SetDefault("GRID_HEIGHT", 80)
	viper.SetDefault("UPDATES_PER_SECOND", 30)
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Sprintf("error loading config: %s", err))
	}

	var env env
	err = viper.Unmarshal(&env)
	if err != nil {
		panic(fmt.Sprintf("error unmarshaling config: %s", err))
	}
	if err := validate(&env); err != nil {
		panic(fmt.Sprintf("invalid config: %s", err))
	}

	cfgInstance = &Config{&env}
	return cfgInstance
}

// validate rejects values the engine cannot represent: dimensions must be
// positive and fit the frame protocol's 16-bit fields, and a non-positive
// update rate is a caller error, caught before the engine is constructed.
func validate(e *env) error {
	if e.GridWidth == 0 || e.GridHeight == 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", e.GridWidth, e.GridHeight)
	}
	if e.GridWidth > math.MaxUint16 || e.GridHeight > math.MaxUint16 {
		return fmt.Errorf("grid dimensions must not exceed %d, got %dx%d", math.MaxUint16, e.GridWidth, e.GridHeight)
	}
	if e.UpdatesPerSecond == 0 {
		return errors.New("UPDATES_PER_SECOND must be positive")
	}
	return nil
}

func (c *Config) DBUrl() string {
	return c.env.DBUrl
}

func (c *Config) Port() uint {
	return c.env.Port
}

func (c *Config) GridWidth() uint {
	return c.env.GridWidth
}

func (c *Config) GridHeight() uint {
	return c.env.GridHeight
}

func (c *Config) UpdatesPerSecond() uint {
	return c.env.UpdatesPerSecond
}
