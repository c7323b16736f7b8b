package sqldb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/msg"

	_ "github.com/go-sql-driver/mysql"
)

// Handler appends one cost-breakdown row per completed solve into MySQL.
type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	Server   string `json:"Server"`
	Port     int    `json:"Port"`
	Username string `json:"Username"`
	Password string `json:"Password"`
	Database string `json:"Database"`
}

// New subscribes a MySQL sink to the system's solution stream.
func New(configPath string, system msg.Publisher) (Handler, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return Handler{}, err
	}

	inbox, err := system.Subscribe(pid, msg.Solution)
	if err != nil {
		return Handler{}, err
	}

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  inbox,
		pid:    pid,
		config: cfg,
		stop:   make(chan bool, 1),
	}, nil
}

// PID is a getter for the handler PID.
func (h Handler) PID() uuid.UUID {
	return h.pid
}

func (h Handler) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		h.config.Username, h.config.Password, h.config.Server, h.config.Port, h.config.Database)
}

// StopProcess terminates the handler's run loop.
func (h *Handler) StopProcess() {
	h.stop <- true
}

// Process writes cost rows from the inbox until stopped.
func (h Handler) Process() {
	db, err := sql.Open("mysql", h.dsn())
	if err != nil {
		log.Println("[SQL]", err)
		return
	}
	defer db.Close()

	const insert = `INSERT INTO cost_breakdown
		(pid, mode, horizon, fuel, grid, cycling, total, solved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
loop:
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				break loop
			}
			sol, ok := m.Payload().(dispatch.Solution)
			if !ok {
				continue
			}
			_, err := db.Exec(insert,
				sol.PID.String(), sol.Mode, sol.Horizon,
				sol.Cost.Fuel, sol.Cost.Grid, sol.Cost.Cycling, sol.Cost.Total,
				time.Now().UTC())
			if err != nil {
				log.Println("[SQL]", err)
			}
		case <-h.stop:
			break loop
		}
	}
	log.Println("[SQL] Process Shutdown")
}
