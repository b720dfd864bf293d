package engine

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no packets", func(c *Config) { c.Packets = 0 }},
		{"no batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"negative target", func(c *Config) { c.TargetRelativeError = -0.1 }},
		{"one min batch", func(c *Config) { c.MinBatches = 1 }},
		{"zero interval", func(c *Config) { c.CheckInterval = 0 }},
		{"anomaly rate above one", func(c *Config) { c.MaxAnomalyRate = 2 }},
	}
	assert.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_Batches(t *testing.T) {
	c := Config{Packets: 25, BatchSize: 10}
	assert.Equal(t, 3, c.NumBatches())
	assert.Equal(t, 10, c.batchPackets(0))
	assert.Equal(t, 10, c.batchPackets(1))
	assert.Equal(t, 5, c.batchPackets(2))

	c = Config{Packets: 30, BatchSize: 10}
	assert.Equal(t, 3, c.NumBatches())
	assert.Equal(t, 10, c.batchPackets(2))
}

func TestConfig_NumWorkers(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), Config{}.NumWorkers())
	assert.Equal(t, 3, Config{Workers: 3}.NumWorkers())
}
