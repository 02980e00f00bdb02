package main

import (
	"log"
	"net/http"

	"github.com/mmcrisostomo/lrt-density/backend/internal/database"
	"github.com/mmcrisostomo/lrt-density/backend/internal/server"
)

func main() {
	if err := database.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}

	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
