package main

import (
	"fmt"
	"log"
	"net/http"

	"pawdesk-assistant-backend/internal/config"
	"pawdesk-assistant-backend/internal/server"
)

func main() {
	cfg := config.Load()
	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	addr := ":" + cfg.Port
	fmt.Printf("PAWDESK assistant server listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
