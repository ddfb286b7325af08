package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/nickyhof/BotDesk"
	"github.com/nickyhof/BotDesk/logger"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	cfg := BotDesk.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	port := flag.Int("port", 3306, "TCP port to listen on")
	auth := flag.Bool("auth", false, "Require AUTH JWT before queries")
	certFile := flag.String("tlsCert", "", "TLS certificate file")
	keyFile := flag.String("tlsKey", "", "TLS key file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("BotDesk query server v%s\n", Version)
		return
	}

	if *auth && cfg.Auth.JWTSecret == "" {
		logger.Error(nil).Msg("-auth requires -jwtSecret or BOTDESK_JWT_SECRET")
		os.Exit(1)
	}

	instance, err := BotDesk.Open(context.Background(), cfg)
	if err != nil {
		logger.Error(err).Msg("Failed to open BotDesk")
		os.Exit(1)
	}
	defer instance.Close()

	server := NewServerWithAuth(instance, &AuthConfig{Enabled: *auth})
	addr := fmt.Sprintf(":%d", *port)

	if *certFile != "" {
		err = server.StartTLS(addr, *certFile, *keyFile)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		logger.Error(err).Msg("Failed to start server")
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("BotDesk query server v%s\n", Version)
	fmt.Printf("Listening on port %d\n", *port)
	fmt.Println(`Send one query per line, raw SQL or {"query": "...", "params": [...]}; 'quit' to disconnect`)
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down")
	server.Stop()
	logger.Info().Msg("Server stopped")
}
