/*
Package modbusmeter polls a site revenue meter over Modbus TCP and
accumulates per-hour average demand, usable as a measured scenario load
profile.
*/
package modbusmeter

import (
	"encoding/binary"
	"encoding/json"
	"io/ioutil"
	"log"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Config is the meter connection and register map.
type Config struct {
	IPAddr   string  `json:"IPAddr"`
	Port     string  `json:"Port"`
	SlaveID  byte    `json:"SlaveID"`
	Timeout  int     `json:"Timeout"`
	PollRate int     `json:"PollRate"`
	Register uint16  `json:"Register"`
	Scale    float64 `json:"Scale"`
}

// Meter accumulates hourly average kW from a polled register.
type Meter struct {
	mux     *sync.Mutex
	handler *modbus.TCPClientHandler
	config  Config
	sums    [24]float64
	counts  [24]int
	stop    chan bool
}

// New returns a configured Meter.
func New(configPath string) (*Meter, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return nil, err
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	handler := modbus.NewTCPClientHandler(cfg.IPAddr + ":" + cfg.Port)
	handler.Timeout = time.Millisecond * time.Duration(cfg.Timeout)
	handler.SlaveId = cfg.SlaveID

	return &Meter{
		mux:     &sync.Mutex{},
		handler: handler,
		config:  cfg,
		stop:    make(chan bool),
	}, nil
}

// Poll reads one demand sample from the meter's holding register.
func (m *Meter) Poll() (float64, error) {
	if err := m.handler.Connect(); err != nil {
		return 0, err
	}
	defer m.handler.Close()

	client := modbus.NewClient(m.handler)
	resp, err := client.ReadHoldingRegisters(m.config.Register, 2)
	if err != nil {
		return 0, err
	}

	bits := binary.BigEndian.Uint32(resp)
	return float64(math.Float32frombits(bits)) * m.config.Scale, nil
}

// Process polls until stopped, folding samples into hourly buckets.
func (m *Meter) Process() {
	ticker := time.NewTicker(time.Duration(m.config.PollRate) * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ticker.C:
			sample, err := m.Poll()
			if err != nil {
				log.Println("[Meter]", err)
				continue
			}
			m.record(time.Now().Hour(), sample)
		case <-m.stop:
			break loop
		}
	}
	log.Println("[Meter] Process Shutdown")
}

// StopProcess terminates the poll loop.
func (m *Meter) StopProcess() {
	m.stop <- true
}

func (m *Meter) record(hour int, sample float64) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.sums[hour] += sample
	m.counts[hour]++
}

// Profile returns the 24-entry hourly average demand captured so far. Hours
// without samples report zero.
func (m *Meter) Profile() []float64 {
	m.mux.Lock()
	defer m.mux.Unlock()

	profile := make([]float64, 24)
	for hour := range profile {
		if m.counts[hour] > 0 {
			profile[hour] = m.sums[hour] / float64(m.counts[hour])
		}
	}
	return profile
}
