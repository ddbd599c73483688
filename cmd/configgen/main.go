package main

import (
	"flag"
	"log"

	"github.com/danmuck/clipbridge/internal/config"
)

func main() {
	kind := flag.String("kind", config.KindHost, "config kind: host")
	output := flag.String("output", "cmd/clipbridged/config.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "cmd/clipbridged/config.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if _, err := config.LoadHostConfig(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, *input)
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, *output)
}
