package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/api/handlers"
	"github.com/miraclemessages/mm-case-api/api/scheduler"
	"github.com/miraclemessages/mm-case-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		zap.S().Fatalw("failed to initialize", "error", err)
	}

	s := scheduler.NewScheduler(a.Sessions, a.Config.SessionTTL)
	if err := s.Start(a.Config.SessionPurgeSchedule); err != nil {
		zap.S().Fatalw("failed to start scheduler", "error", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", a.Config.Port),
		Handler: a.Router,
	}
	go func() {
		zap.S().Infow("mm-case-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
			"store", a.Config.Store,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("failed to shut down server", "error", err)
	}
	if err := a.Close(ctx); err != nil {
		zap.S().Errorw("failed to disconnect from database", "error", err)
	}
}
