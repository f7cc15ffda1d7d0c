package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"vislog/pkg/catalogapi"
	"vislog/pkg/catalogdata"
)

func main() {
	cfg := catalogdata.LoadConfig()

	store, err := catalogdata.OpenStore(context.Background(), cfg.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	router := catalogapi.NewRouter(cfg, store)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("starting server on %s (store=%s)", addr, cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
