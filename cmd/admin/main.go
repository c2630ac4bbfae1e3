package main

import (
	"log"

	tool "vue-dashboard-api/internal/tools/admin"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
