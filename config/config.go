package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"podfleet/grid"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Layout    grid.Layout     `yaml:"layout"`
	Sim       SimConfig       `yaml:"sim"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
}

type SimConfig struct {
	Robots       int           `yaml:"robots"`
	TickInterval time.Duration `yaml:"tick_interval"`
	QueueTarget  int           `yaml:"queue_target"` // tasks kept waiting in the queue
	PickTicks    int           `yaml:"pick_ticks"`   // ticks a robot dwells at a station
	Stations     []grid.Pos    `yaml:"stations"`
	Starts       []grid.Pos    `yaml:"starts"` // optional; defaults to the bottom row from x=0
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka" or "mqtt"
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	TelemetryTopic      string        `yaml:"telemetry_topic"`
	CommandTopic        string        `yaml:"command_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	StationID           string        `yaml:"station_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

func Defaults() *Config {
	return &Config{
		Layout: grid.DefaultLayout(),
		Sim: SimConfig{
			Robots:       4,
			TickInterval: 500 * time.Millisecond,
			QueueTarget:  3,
			PickTicks:    3,
			Stations:     []grid.Pos{{X: 6, Y: 9}},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "podfleet.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "podfleet",
				User:     "podfleet",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8090,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "podfleet",
			},
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "podfleet",
			},
			TelemetryTopic:      "podfleet.telemetry",
			CommandTopic:        "podfleet.commands",
			OutboxDrainInterval: 5 * time.Second,
			StationID:           "warehouse-1",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the layout, that stations are open floor and that every
// robot has a distinct start cell.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Sim.Robots < 0 {
		return fmt.Errorf("sim.robots must not be negative")
	}
	if len(c.Sim.Stations) == 0 {
		return fmt.Errorf("sim.stations: at least one station is required")
	}
	for _, s := range c.Sim.Stations {
		if !c.Layout.InBounds(s) || c.Layout.IsPodCell(s) || c.Layout.LaneOf(s) != grid.NoLane {
			return fmt.Errorf("sim.stations: %v must be an open floor cell", s)
		}
	}
	if len(c.Sim.Starts) == 0 && c.Sim.Robots > c.Layout.PodColumns {
		return fmt.Errorf("sim.robots: %d robots need explicit sim.starts (bottom row holds %d)", c.Sim.Robots, c.Layout.PodColumns)
	}
	if len(c.Sim.Starts) > 0 && c.Sim.Robots > len(c.Sim.Starts) {
		return fmt.Errorf("sim.starts: %d entries for %d robots", len(c.Sim.Starts), c.Sim.Robots)
	}
	seen := make(map[grid.Pos]bool)
	for _, s := range c.Sim.Stations {
		seen[s] = true
	}
	for _, s := range c.Sim.Starts {
		if !c.Layout.InBounds(s) {
			return fmt.Errorf("sim.starts: %v is off the grid", s)
		}
		if seen[s] {
			return fmt.Errorf("sim.starts: %v is used twice or is a station", s)
		}
		seen[s] = true
	}
	return nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }

// StartCells returns one start cell per robot: sim.starts when set, else the
// bottom row from x=0.
func (c *Config) StartCells() []grid.Pos {
	cells := make([]grid.Pos, c.Sim.Robots)
	for i := range cells {
		if len(c.Sim.Starts) > 0 {
			cells[i] = c.Sim.Starts[i]
		} else {
			cells[i] = grid.P(i, c.Layout.LastRow())
		}
	}
	return cells
}
