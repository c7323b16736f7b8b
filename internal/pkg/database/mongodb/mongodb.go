package mongodb

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/msg"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handler persists completed solutions into MongoDB, one document per solve
// request, upserted by solution PID.
type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	stop   chan bool
}

type config struct {
	URI      string `json:"URI"`
	Port     string `json:"Port"`
	Database string `json:"Database"`
}

// New subscribes a MongoDB sink to the system's solution stream.
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

func solutionToBSON(sol dispatch.Solution) bson.D {
	return bson.D{
		{"$set", bson.M{
			"pid":       sol.PID.String(),
			"mode":      sol.Mode,
			"horizon":   sol.Horizon,
			"objective": sol.Objective,
			"cost": bson.M{
				"fuel":    sol.Cost.Fuel,
				"grid":    sol.Cost.Grid,
				"cycling": sol.Cost.Cycling,
				"total":   sol.Cost.Total,
			},
			"devices": sol.Devices,
		}},
	}
}

// StopProcess terminates the handler's run loop.
func (h *Handler) StopProcess() {
	h.stop <- true
}

// Process writes solutions from the inbox until stopped.
func (h Handler) Process() {
	client, err := mongo.NewClient(options.Client().ApplyURI(h.config.URI + ":" + h.config.Port))
	if err != nil {
		log.Println("[Mongo]", err)
		return
	}

	ctx := context.TODO()
	if err := client.Connect(ctx); err != nil {
		log.Println("[Mongo]", err)
		return
	}
	defer client.Disconnect(ctx)

	results := client.Database(h.config.Database).Collection("solveResults")
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
			opts := options.Update().SetUpsert(true)
			_, err := results.UpdateOne(ctx, bson.M{"pid": sol.PID.String()}, solutionToBSON(sol), opts)
			if err != nil {
				log.Println("[Mongo]", err)
			}
		case <-h.stop:
			break loop
		}
	}
	log.Println("[Mongo] Process Shutdown")
}
