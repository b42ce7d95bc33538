package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanheat/uhi-cli/internal/hotspot"
	"github.com/urbanheat/uhi-cli/internal/model"
	"github.com/urbanheat/uhi-cli/internal/provider"
	"github.com/urbanheat/uhi-cli/internal/store"
	"github.com/urbanheat/uhi-cli/internal/threshold"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// analyzeRequest is the POST /api/analyze body. Data names a server-local
// dataset: a directory of per-variable CSVs or one wide .csv.
type analyzeRequest struct {
	City       string `json:"city"`
	Country    string `json:"country"`
	Year       int    `json:"year"`
	Data       string `json:"data"`
	Policy     string `json:"policy,omitempty"`
	SampleSize int    `json:"sample_size,omitempty"`
	Seed       *int64 `json:"seed,omitempty"`
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.City == "" || req.Year == 0 || req.Data == "" {
			writeError(w, http.StatusBadRequest, "city, year, and data are required")
			return
		}

		var layers model.Layers
		var err error
		if strings.HasSuffix(req.Data, ".csv") {
			layers, err = provider.LoadWide(req.Data)
		} else {
			layers, err = provider.LoadDir(req.Data)
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		pol := threshold.DefaultPolicy()
		if req.Policy != "" {
			if pol, err = threshold.LoadPolicy(req.Policy); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}

		in := hotspot.Input{
			City:       req.City,
			Year:       req.Year,
			Layers:     layers,
			SampleSize: req.SampleSize,
			Seed:       cfg.Sample.Seed,
			Weights:    weightsFromConfig(),
			Policy:     pol,
		}
		if in.SampleSize == 0 {
			in.SampleSize = cfg.Sample.Size
		}
		if req.Seed != nil {
			in.Seed = *req.Seed
		}

		report, err := hotspot.Run(in)
		if err != nil {
			zap.L().Error("api analysis failed",
				zap.String("city", req.City),
				zap.Error(err),
			)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		run := store.Run{
			ID:      uuid.New().String(),
			City:    req.City,
			Slug:    store.Slug(req.City),
			Country: req.Country,
			Year:    req.Year,
			Report:  report,
		}
		if err := st.SaveRun(r.Context(), run); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save run")
			return
		}

		writeJSON(w, http.StatusCreated, run)
	})

	r.Get("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		year, _ := strconv.Atoi(r.URL.Query().Get("year"))
		filter := store.RunFilter{
			Slug:  store.Slug(r.URL.Query().Get("city")),
			Year:  year,
			Limit: limit,
		}

		runs, err := st.ListRuns(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}
		if runs == nil {
			runs = []store.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
