package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/TechNxt05/revtrust/pkg/metrics"
	"github.com/TechNxt05/revtrust/pkg/trust"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080
)

var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen",
		Value: serverPortDefault,
	}

	serverCmd = &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the trust scoring HTTP server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			debugFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	cfg := getConfig(c)
	port := c.Int(portFlag.Name)
	address := fmt.Sprintf("127.0.0.1:%d", port)

	metrics.Init()
	resolver := buildResolver(cfg)

	mux := makeRouter(resolver)
	s := &http.Server{
		Addr:           address,
		Handler:        mux,
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting server", "error", err)
		}
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func makeRouter(resolver *trust.Resolver) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/trust/{id}", trustByIDHandler(resolver))
	mux.HandleFunc("POST /api/trust", trustBatchHandler(resolver))

	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

// trustByIDHandler runs the resolution chain for one item identifier.
// The chain never fails, so this handler always answers 200 with a
// fully populated TrustResult.
func trustByIDHandler(resolver *trust.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := r.PathValue("id")
		if itemID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no item id provided"})
			return
		}

		res := resolver.GetTrust(r.Context(), itemID)
		metrics.RecordLookup(res.Model)
		writeJSON(w, http.StatusOK, res)
	}
}

// trustBatchRequest is the structured-input path: the caller already has
// the evidence in hand, so cache and fallback are bypassed.
type trustBatchRequest struct {
	Texts   []string       `json:"texts,omitempty"`
	Reviews []trust.Review `json:"reviews,omitempty"`
}

func trustBatchHandler(resolver *trust.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req trustBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		var res *trust.TrustResult
		switch {
		case len(req.Reviews) > 0:
			res = resolver.GetTrustForReviews(r.Context(), req.Reviews)
		case len(req.Texts) > 0:
			res = resolver.GetTrustForTexts(r.Context(), req.Texts)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no reviews or texts provided"})
			return
		}

		metrics.RecordLookup(res.Model)
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
