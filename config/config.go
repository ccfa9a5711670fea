package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"tileplay/agent"
	"tileplay/experiments"
	"tileplay/game"
	"tileplay/searcher"
)

var cfgFile = "tileplay/config.yaml"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

type SearchConfig struct {
	Iterations          int           `yaml:"iterations"`
	Duration            time.Duration `yaml:"duration"`
	ExplorationRate     float64       `yaml:"exploration_rate"`
	ExplorationConstant float64       `yaml:"exploration_constant"` // C^2 of the UCB exploration term
	Reuse               bool          `yaml:"reuse"`
	Seed                uint64        `yaml:"seed"` // zero seeds from the clock
}

type GameConfig struct {
	TileSet  string `yaml:"tile_set"`
	Meeples  int    `yaml:"meeples"`
	Seed     uint64 `yaml:"seed"` // zero shuffles from the clock
	MaxMoves int    `yaml:"max_moves"`
}

type QLearnConfig struct {
	Alpha     float64 `yaml:"alpha"`
	Gamma     float64 `yaml:"gamma"`
	Epsilon   float64 `yaml:"epsilon"`
	TablePath string  `yaml:"table_path"` // XDG data file when empty
	Episodes  int     `yaml:"episodes"`
	SaveEvery int     `yaml:"save_every"`
}

type ArenaConfig struct {
	Experiment string `yaml:"experiment"`
	Games      int    `yaml:"games"`
	Parallel   int    `yaml:"parallel"`
	OutDir     string `yaml:"out_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // Prometheus endpoint, disabled when empty
}

type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Game    GameConfig    `yaml:"game"`
	QLearn  QLearnConfig  `yaml:"qlearn"`
	Arena   ArenaConfig   `yaml:"arena"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Search: SearchConfig{
			Iterations:          500,
			ExplorationRate:     1.0,
			ExplorationConstant: searcher.CSquared,
		},
		Game: GameConfig{
			TileSet:  "base",
			Meeples:  game.DefaultMeeples,
			MaxMoves: 1000,
		},
		QLearn: QLearnConfig{
			Alpha:     agent.DefaultAlpha,
			Gamma:     agent.DefaultGamma,
			Epsilon:   agent.DefaultEpsilon,
			Episodes:  1000,
			SaveEvery: 100,
		},
		Arena: ArenaConfig{
			Experiment: "baseline",
			Games:      experiments.NumGames,
			Parallel:   4,
			OutDir:     "results",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load layers the defaults, the XDG config file, the file at path if given and the
// TILEPLAY_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	if absPath, err := xdg.SearchConfigFile(cfgFile); err == nil {
		if err := readCfgFile(absPath, &config); err != nil {
			return nil, err
		}
	}
	if path != "" {
		if err := readCfgFile(path, &config); err != nil {
			return nil, err
		}
	}
	if err := loadConfigFromEnv(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func readCfgFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadConfigFromEnv(config *Config) error {
	vars := []struct {
		name string
		set  func(v string) error
	}{
		{"TILEPLAY_ITERATIONS", func(v string) (err error) {
			config.Search.Iterations, err = strconv.Atoi(v)
			return err
		}},
		{"TILEPLAY_DURATION", func(v string) (err error) {
			config.Search.Duration, err = time.ParseDuration(v)
			return err
		}},
		{"TILEPLAY_EXPLORATION_RATE", func(v string) (err error) {
			config.Search.ExplorationRate, err = strconv.ParseFloat(v, 64)
			return err
		}},
		{"TILEPLAY_SEED", func(v string) (err error) {
			config.Search.Seed, err = strconv.ParseUint(v, 10, 64)
			return err
		}},
		{"TILEPLAY_TILE_SET", func(v string) error {
			config.Game.TileSet = v
			return nil
		}},
		{"TILEPLAY_QTABLE", func(v string) error {
			config.QLearn.TablePath = v
			return nil
		}},
		{"TILEPLAY_LOG_LEVEL", func(v string) error {
			config.Log.Level = v
			return nil
		}},
		{"TILEPLAY_METRICS_ADDR", func(v string) error {
			config.Metrics.Addr = v
			return nil
		}},
	}

	for _, env := range vars {
		v, ok := os.LookupEnv(env.name)
		if !ok || v == "" {
			continue
		}
		if err := env.set(v); err != nil {
			return fmt.Errorf("parse %s: %w", env.name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	inUnit := func(v float64) bool { return !math.IsNaN(v) && v >= 0 && v <= 1 }

	switch {
	case c.Search.Iterations < 0 || c.Search.Duration < 0:
		return &InvalidConfig{"search budget must not be negative"}
	case c.Search.Iterations == 0 && c.Search.Duration == 0:
		return &InvalidConfig{"search needs iterations or a duration"}
	case !inUnit(c.Search.ExplorationRate):
		return &InvalidConfig{"search.exploration_rate must be within [0, 1]"}
	case c.Search.ExplorationConstant <= 0:
		return &InvalidConfig{"search.exploration_constant must be > 0"}
	case c.Game.Meeples < 0:
		return &InvalidConfig{"game.meeples must not be negative"}
	case c.Game.MaxMoves < 1:
		return &InvalidConfig{"game.max_moves must be >= 1"}
	case !inUnit(c.QLearn.Alpha) || !inUnit(c.QLearn.Gamma) || !inUnit(c.QLearn.Epsilon):
		return &InvalidConfig{"qlearn alpha, gamma and epsilon must be within [0, 1]"}
	case c.QLearn.Episodes < 0 || c.QLearn.SaveEvery < 0:
		return &InvalidConfig{"qlearn episodes must not be negative"}
	case c.Arena.Games < 1:
		return &InvalidConfig{"arena.games must be >= 1"}
	case c.Arena.Parallel < 0:
		return &InvalidConfig{"arena.parallel must not be negative"}
	}

	if _, err := game.TileSet(c.Game.TileSet); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &InvalidConfig{fmt.Sprintf("log.level: %v", err)}
	}
	return nil
}

// TablePath is the configured Q-table path, defaulting to the user's data directory.
func (c *Config) TablePath() (string, error) {
	if c.QLearn.TablePath != "" {
		return c.QLearn.TablePath, nil
	}
	return agent.DefaultTablePath()
}

// SearchOptions translates the search section into tree options.
func (c *Config) SearchOptions() []searcher.Option {
	options := []searcher.Option{
		searcher.WithEpisodes(c.Search.Iterations),
		searcher.WithDuration(c.Search.Duration),
		searcher.WithExplorationConstant(c.Search.ExplorationConstant),
	}
	if c.Search.Seed != 0 {
		// Shared by every tree built from these options
		options = append(options, searcher.WithRand(rand.New(rand.NewSource(c.Search.Seed))))
	}
	return options
}

// RuleOptions translates the tile set and meeples of the game section.
func (c *Config) RuleOptions() ([]game.Option, error) {
	set, err := game.TileSet(c.Game.TileSet)
	if err != nil {
		return nil, err
	}
	return []game.Option{game.WithTileSet(set), game.WithMeeples(c.Game.Meeples)}, nil
}

// GameOptions are the rule options plus the deck seed.
func (c *Config) GameOptions() ([]game.Option, error) {
	options, err := c.RuleOptions()
	if err != nil {
		return nil, err
	}
	seed := c.Game.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return append(options, game.WithSeed(seed)), nil
}
