package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := initializeLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(log)
	if err != nil {
		log.Fatalf("[App] startup failed: %v", err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startBackground(ctx)

	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.config.LocalTLS {
		tlsConfig, hostname, err := a.localTLS(ctx)
		if err != nil {
			log.Fatalf("[App] TLS setup failed: %v", err)
		}
		srv.TLSConfig = tlsConfig
		log.Infof("[App] install from https://%s:%s/configure", hostname, a.config.Port)
	}

	go func() {
		log.Infof("[App] starting server on port %s", a.config.Port)
		if err := serve(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[App] server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infof("[App] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[App] graceful shutdown failed: %v", err)
	}
}

func serve(srv *http.Server) error {
	if srv.TLSConfig != nil {
		return srv.ListenAndServeTLS("", "")
	}
	return srv.ListenAndServe()
}
