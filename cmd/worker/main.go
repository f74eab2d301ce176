package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"rentora-api-io/api/internal/container"
	"rentora-api-io/api/pkg/services"
	"rentora-api-io/api/pkg/util"
)

func main() {
	serviceContainer := container.NewServiceContainer()

	size := 4
	if raw := util.LoadEnvFor("WORKER_POOL_SIZE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			log.Fatalf("invalid WORKER_POOL_SIZE %q", raw)
		}
		size = parsed
	}

	pool := services.NewQueueWorkerPool(size, serviceContainer.Broker, serviceContainer.VerificationService.RunVerification)
	pool.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down verification workers")
	pool.Stop()
}
