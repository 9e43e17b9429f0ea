package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go-elevator-dispatch/pkg/elevator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ElevatorConfig is the car configuration sent by the browser or read from
// the YAML file. Durations are in seconds.
// ElevatorConfig는 브라우저 또는 YAML 파일에서 받은 엘리베이터 설정입니다.
type ElevatorConfig struct {
	ID           string  `json:"id" yaml:"id"`
	FloorCount   int     `json:"floorCount" yaml:"floorCount"`
	InitialFloor int     `json:"initialFloor" yaml:"initialFloor"`
	TickInterval float64 `json:"tickInterval" yaml:"tickInterval"` // seconds (한 층 이동 시간)
	IdleGrace    float64 `json:"idleGrace" yaml:"idleGrace"`       // seconds (정지 전환 대기 시간)
}

type AppConfig struct {
	Port     string
	Elevator ElevatorConfig
}

func defaultElevatorConfig() ElevatorConfig {
	return ElevatorConfig{
		FloorCount:   elevator.DefaultFloorCount,
		TickInterval: elevator.DefaultTickInterval.Seconds(),
		IdleGrace:    elevator.DefaultIdleGrace.Seconds(),
	}
}

// loadConfig reads envFile (if present) into the environment, then PORT and
// ELEVATOR_CONFIG from the environment.
func loadConfig(envFile string) (*AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &AppConfig{
		Port:     port,
		Elevator: defaultElevatorConfig(),
	}

	if path := os.Getenv("ELEVATOR_CONFIG"); path != "" {
		ec, err := readElevatorConfig(path)
		if err != nil {
			return nil, err
		}
		cfg.Elevator = ec
	}
	return cfg, nil
}

// readElevatorConfig decodes a YAML car configuration on top of the defaults.
func readElevatorConfig(path string) (ElevatorConfig, error) {
	ec := defaultElevatorConfig()

	file, err := os.Open(path)
	if err != nil {
		return ec, fmt.Errorf("open elevator config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&ec); err != nil {
		return ec, fmt.Errorf("decode elevator config %s: %w", path, err)
	}
	return ec, nil
}

// merge fills the zero fields of c from defaults.
func (c ElevatorConfig) merge(defaults ElevatorConfig) ElevatorConfig {
	if c.ID == "" {
		c.ID = defaults.ID
	}
	if c.FloorCount == 0 {
		c.FloorCount = defaults.FloorCount
	}
	if c.TickInterval == 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.IdleGrace == 0 {
		c.IdleGrace = defaults.IdleGrace
	}
	return c
}

// toElevator converts to the core configuration. A missing ID gets a fresh UUID.
func (c ElevatorConfig) toElevator() elevator.Config {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	return elevator.Config{
		ID:           id,
		FloorCount:   c.FloorCount,
		InitialFloor: c.InitialFloor,
		TickInterval: seconds(c.TickInterval),
		IdleGrace:    seconds(c.IdleGrace),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
