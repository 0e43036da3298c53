package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-tools/todosync/internal/config"
	"github.com/kestrel-tools/todosync/internal/replica/httpapi"
	"github.com/kestrel-tools/todosync/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "advanced",
	Short:   "Serve the local replica over HTTP",
	Long: `Expose the local replica as the JSON-over-HTTP replica API so
other tds instances can sync against this machine.

Endpoints:
  GET  /v1/records       list all records
  POST /v1/records       create a record
  PUT  /v1/records/{id}  update a record
  GET  /v1/health        liveness check (no auth)

Set serve.token in the config (or TODOSYNC_SERVE_TOKEN) to require a
bearer token on record endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		logger := log.New(os.Stderr, "[serve] ", log.LstdFlags)

		local, closeLocal, err := config.BuildAccessor(cfg.Local, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer closeLocal()

		handler := httpapi.NewHandler(local, cfg.Serve.Token, logger)
		server := &http.Server{
			Addr:         cfg.Serve.Addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		go func() {
			fmt.Printf("%s Serving %s on %s\n", ui.RenderAccent("🌐"),
				local.Name(), cfg.Serve.Addr)
			if cfg.Serve.Token == "" {
				fmt.Printf("%s No serve.token configured; API is unauthenticated\n",
					ui.RenderWarn("⚠"))
			}
			fmt.Println("Press Ctrl+C to stop...")

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
