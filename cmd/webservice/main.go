package main

import (
	"log"
	"net/http"
	"time"

	"github.com/iesplan/ies_core/internal/pkg/catalog"
	"github.com/iesplan/ies_core/internal/pkg/dispatch"
	"github.com/iesplan/ies_core/internal/pkg/root"
	"github.com/iesplan/ies_core/internal/pkg/webservice"
)

func main() {
	d, err := dispatch.New(catalog.Default(), 60*time.Second)
	if err != nil {
		panic(err)
	}

	system, err := root.NewSystem(d)
	if err != nil {
		panic(err)
	}

	r := webservice.MakeRouter(webservice.NewService(&system))
	http.Handle("/", r)

	port := ":8080"
	log.Println("Starting Server on Port", port)
	http.ListenAndServe(port, r)
}
