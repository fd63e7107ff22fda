package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=5000"`
	GRPCPort          int           `env:"GRPC_PORT,default=5001"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/badger"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	InactivityTimeout time.Duration `env:"INACTIVITY_TIMEOUT,default=10s"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	SweepTimeout      time.Duration `env:"SWEEP_TIMEOUT,default=5s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	// Origins are separated by '|'
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=*"`
}

func (c Config) Validate() error {
	if c.InactivityTimeout <= 0 {
		return fmt.Errorf("INACTIVITY_TIMEOUT must be positive, got %s", c.InactivityTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.SweepTimeout <= 0 {
		return fmt.Errorf("SWEEP_TIMEOUT must be positive, got %s", c.SweepTimeout)
	}
	if c.Port == c.GRPCPort {
		return fmt.Errorf("PORT and GRPC_PORT must differ, both are %d", c.Port)
	}
	return nil
}
