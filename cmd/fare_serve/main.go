package main

import (
	"log"

	"github.com/alexflint/go-arg"
	"github.com/hscells/taxifare/api"
	"github.com/hscells/taxifare/cmd"
)

type args struct {
	Model     string `help:"path to the fitted model artifact" default:"models/final/model.gob"`
	Addr      string `help:"address to listen on" default:":8000"`
	CacheSize int    `help:"number of models kept loaded" default:"4"`
	Debug     bool   `help:"print the stack of any error"`
}

func (args) Version() string {
	return "fare_serve 19.Oct.2026"
}

func (args) Description() string {
	return `serve taxi fare predictions over http`
}

func main() {
	var args args
	arg.MustParse(&args)

	models, err := api.NewModels(args.CacheSize)
	if err != nil {
		cmd.Fatal(err, args.Debug)
	}
	defer models.Close()

	// Loading up front reports a broken artifact at startup rather than on the first request.
	if _, err := models.Get(args.Model); err != nil {
		log.Printf("[warning] %s\n", cmd.Describe(err, args.Debug))
	}

	e := api.New(args.Model, models)
	log.Printf("serving %s on %s\n", args.Model, args.Addr)
	if err := e.Start(args.Addr); err != nil {
		cmd.Fatal(err, args.Debug)
	}
}
