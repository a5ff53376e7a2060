package app

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lark/internal/app/bootstrap"
	"lark/internal/app/server"
	"lark/internal/config"
	"lark/internal/geoip"
	"lark/internal/support"
)

const (
	defaultBackendPort  = 8082
	defaultFrontendPort = 8084
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	log.SetLevel(log.DebugLevel)

	backendPortFlag := flag.Int("backend-port", defaultBackendPort, "Port for API server")
	frontendPortFlag := flag.Int("frontend-port", defaultFrontendPort, "Port for frontend static server")
	serveFEFlag := flag.Bool("serve-frontend", true, "Serve the frontend bundle on the API port")
	productionFlag := flag.Bool("production", false, "Run in production mode")
	flag.Parse()

	config.SetProductionMode(*productionFlag)

	backendPort := resolvePort("BACKEND_PORT", "backend-port", *backendPortFlag)
	frontendPort := resolvePort("FRONTEND_PORT", "frontend-port", *frontendPortFlag)

	serveFrontend := *serveFEFlag
	if v := os.Getenv("SERVE_FRONTEND"); strings.EqualFold(v, "false") {
		serveFrontend = false
	}

	if err := bootstrap.Setup(); err != nil {
		return err
	}

	defer func() {
		geoip.Close()
		if err := support.CloseRedisClient(); err != nil {
			log.Warn("error closing redis client", "error", err)
		}
	}()

	var group errgroup.Group

	group.Go(func() error {
		return server.OpenRoutes(backendPort, serveFrontend)
	})

	if !serveFrontend {
		group.Go(func() error {
			if err := server.ServeFrontend(frontendPort); err != nil {
				log.Error("frontend server terminated", "error", err)
				return err
			}
			return nil
		})
	}

	return group.Wait()
}

func resolvePort(primaryEnv, legacyEnv string, fallback int) int {
	if port := readPort(primaryEnv); port != 0 {
		return port
	}
	if port := readPort(legacyEnv); port != 0 {
		return port
	}
	return fallback
}

func readPort(envKey string) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return 0
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port == 0 {
		log.Warn("invalid port override", "env", envKey, "value", raw)
		return 0
	}
	return port
}
