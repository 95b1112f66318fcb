package main

import (
	"log"

	"github.com/credx/credx-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
