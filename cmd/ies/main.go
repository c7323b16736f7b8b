package main

import (
	"log"
	"os"
	"time"

	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/database/mongodb"
	"github.com/iesplan/ies_core/internal/pkg/datastreams/natshandler"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/root"
	"github.com/iesplan/ies_core/internal/pkg/scenario"
)

func main() {
	log.Println("[Main] Starting IES_Core v0.1.0")

	log.Println("[Main] Loading Scenario")
	scn, err := scenario.NewFromFile("./config/scenario/default.json")
	if err != nil {
		panic(err)
	}

	log.Println("[Main] Building Dispatcher")
	d, err := dispatch.New(catalog.Default(), 60*time.Second)
	if err != nil {
		panic(err)
	}

	log.Println("[Main] Assembling System")
	system, err := root.NewSystem(d)
	if err != nil {
		panic(err)
	}
	defer system.Stop()

	linkSinks(&system)
	system.PublishConfig()

	reqs := []catalog.Request{
		{Type: "grid"},
		{Type: "pv", Capacity: 1000},
		{Type: "electric_boiler", Capacity: 2000},
		{Type: "ashp", Capacity: 1500},
		{Type: "electrolyzer"},
		{Type: "fuel_cell"},
		{Type: "battery", Capacity: 100},
		{Type: "h2_storage", Capacity: 200, Hours: 20},
	}

	log.Println("[Main] Solving Dispatch Problem")
	sol, err := system.Solve(reqs, scn, dispatch.Auto)
	if err != nil {
		log.Println("[Main] Solve failed:", err)
		os.Exit(1)
	}

	log.Printf("[Main] Solved %s over %d steps", sol.Mode, sol.Horizon)
	log.Printf("[Main] Total Cost: %.2f (fuel %.2f, grid %.2f, cycling %.2f)",
		sol.Cost.Total, sol.Cost.Fuel, sol.Cost.Grid, sol.Cost.Cycling)
	for _, device := range sol.Devices {
		peak := 0.0
		for _, series := range device.Output {
			for _, v := range series {
				if v > peak {
					peak = v
				}
			}
		}
		log.Printf("[Main]  - %s: peak output %.2f kW", device.Name, peak)
	}

	// let sink goroutines drain before exit
	time.Sleep(500 * time.Millisecond)
	log.Println("[Main] Stopping system")
}

func linkSinks(system *root.System) {
	if mongoHandler, err := mongodb.New("./config/database/mongodb.json", system); err == nil {
		log.Println("[Main] Connecting MongoDB Service")
		go mongoHandler.Process()
	}
	if natsHandler, err := natshandler.New("./config/datastreams/nats.json", system); err == nil {
		log.Println("[Main] Connecting NATS Service")
		go natsHandler.Process()
	}
}
