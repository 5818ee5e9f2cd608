package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var embeddedSchema string

const embeddedSchemaURL = "config.schema.json"

// Config describes one flock and the loop that drives it. It is read from a JSON
// file checked against config.schema.json; missing keys keep their DefaultConfig value.
type Config struct {
	// Simulation volume, half extents around the origin
	Bounds  geometry.Vector3D `json:"bounds"`
	Padding float64           `json:"padding"`

	// Population
	TargetCount int               `json:"targetCount"`
	SpawnRadius float64           `json:"spawnRadius"`
	SpawnOrigin geometry.Vector3D `json:"spawnOrigin"`

	// Boids flocking parameters
	MaxSpeed   float64    `json:"maxSpeed"`
	Separation flock.Rule `json:"separation"`
	Alignment  flock.Rule `json:"alignment"`
	Cohesion   flock.Rule `json:"cohesion"`

	// Seed of the spawner random source, 0 picks a random one.
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers"` // 0 = GOMAXPROCS
	// Ticks per second of the host loop
	TickRate int `json:"tickRate"`

	WindowWidth  int `json:"windowWidth"`
	WindowHeight int `json:"windowHeight"`
}

// DefaultConfig returns the flock used when no configuration file is given.
func DefaultConfig() *Config {
	return &Config{
		Bounds:       geometry.Vector3D{X: 50, Y: 30, Z: 50},
		Padding:      1,
		TargetCount:  300,
		SpawnRadius:  10,
		MaxSpeed:     10,
		Separation:   flock.Rule{Range: 10, Factor: 1},
		Alignment:    flock.Rule{Range: 10, Factor: 1},
		Cohesion:     flock.Rule{Range: 10, Factor: 1},
		Seed:         123,
		TickRate:     60,
		WindowWidth:  1000,
		WindowHeight: 800,
	}
}

// Parameters extracts the flock wide steering parameters.
func (c *Config) Parameters() flock.Parameters {
	return flock.Parameters{
		Bounds:     c.Bounds,
		Padding:    c.Padding,
		MaxSpeed:   c.MaxSpeed,
		Separation: c.Separation,
		Alignment:  c.Alignment,
		Cohesion:   c.Cohesion,
	}
}

// SpawnSettings extracts the spawner target and placement.
func (c *Config) SpawnSettings() flock.SpawnSettings {
	return flock.SpawnSettings{
		TargetCount: c.TargetCount,
		Radius:      c.SpawnRadius,
		Origin:      c.SpawnOrigin,
	}
}

// Rand returns the random source selected by Seed.
func (c *Config) Rand() flock.Rand {
	if c.Seed == 0 {
		return flock.NewUnseededRand()
	}
	return flock.NewRand(c.Seed)
}

// TickSeconds is the fixed elapsed time of one tick.
func (c *Config) TickSeconds() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60
	}
	return 1 / float64(c.TickRate)
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
// An empty schemaFile selects the schema compiled into the binary.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := compileSchema(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults, so optional fields keep a sane value
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Parameters().Validate(); err != nil {
		return nil, err
	}
	if err := cfg.SpawnSettings().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except an empty configFile selects DefaultConfig.
func LoadConfigOrDefault(configFile string, schemaFile string) (*Config, error) {
	if configFile == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(configFile, schemaFile)
}

func compileSchema(schemaFile string) (*jsonschema.Schema, error) {
	if schemaFile != "" {
		return jsonschema.Compile(schemaFile)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, strings.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(embeddedSchemaURL)
}
