package natshandler

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/msg"

	nats "github.com/nats-io/nats.go"
)

const solutionSubject = "ies.solution"

// Handler broadcasts completed solutions over NATS for downstream
// visualization collaborators.
type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	Server string `json:"Server"`
}

// New subscribes a NATS sink to the system's solution stream.
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

// StopProcess terminates the handler's run loop.
func (h *Handler) StopProcess() {
	h.stop <- true
}

// Process publishes solutions from the inbox until stopped.
func (h Handler) Process() {
	nc, err := nats.Connect(h.config.Server)
	if err != nil {
		log.Println("[NATS]", err)
		return
	}
	defer nc.Close()

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
			payload, err := json.Marshal(sol)
			if err != nil {
				log.Println("[NATS]", err)
				continue
			}
			if err := nc.Publish(solutionSubject, payload); err != nil {
				log.Println("[NATS]", err)
			}
		case <-h.stop:
			break loop
		}
	}
	log.Println("[NATS] Process Shutdown")
}
