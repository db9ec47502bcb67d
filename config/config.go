// Package config holds the integrator-facing configuration surface: the
// compile-time constants of the original design become a YAML document
// validated against actual usage.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OSAL   OSALConfig   `yaml:"osal"`
	Serial SerialConfig `yaml:"serial"`
	Shell  ShellConfig  `yaml:"shell"`
}

// ---- OSAL slot-table capacities ----

type OSALConfig struct {
	Queues     int `yaml:"queues"`
	Locks      int `yaml:"locks"`
	Semaphores int `yaml:"semaphores"`
	Streams    int `yaml:"streams"`
	Timers     int `yaml:"timers"`
	Events     int `yaml:"events"`
	Threads    int `yaml:"threads"`
}

// ---- serial transport ----

type SerialConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	StopBits  int    `yaml:"stop_bits"`
	Parity    string `yaml:"parity"` // "N", "E" or "O"
	TimeoutMs int    `yaml:"timeout_ms"`
	RingSize  int    `yaml:"ring_size"`
	TxBufSize int    `yaml:"tx_buf_size"`
}

// ---- shell bounds ----

type ShellConfig struct {
	Name        string `yaml:"name"`
	MaxCommands int    `yaml:"max_commands"`
	MaxArgv     int    `yaml:"max_argv"`
	MaxLine     int    `yaml:"max_line"`
	QueueDepth  int    `yaml:"queue_depth"`
}

// Load reads and decodes a YAML config file. Callers normalize and
// validate separately.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
