package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/presbrey/ircd/internal/log"
	"github.com/presbrey/ircd/irc"
	"github.com/presbrey/ircd/irc/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <port> <password>\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "Path to a TOML/YAML/JSON configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
	}

	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil || port < 1 || port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port: %s\n", flag.Arg(0))
		os.Exit(1)
	}
	password := flag.Arg(1)
	if password == "" {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.Port = port
	cfg.Server.Password = password

	logger := log.New(cfg.Log.Level)

	server := irc.NewServer(cfg, logger)
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
	logger.Info().Int("port", port).Msg("server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")
	if err := server.Stop(); err != nil {
		logger.Error().Err(err).Msg("error stopping server")
	}
}
