package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/bench"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/route"
	"vrpsearch/internal/store"
)

const (
	maxSolveBody       = 1 << 20
	maxSolveIterations = 20000
	maxSolveTime       = 30 * time.Second
)

type solvedRoute struct {
	Vehicle string   `json:"vehicle"`
	Jobs    []string `json:"jobs"`
	Cost    float64  `json:"cost"`
	Load    int      `json:"load"`
}

type solveResponse struct {
	Result     store.Result  `json:"result"`
	Routes     []solvedRoute `json:"routes"`
	Unassigned []string      `json:"unassigned"`
}

// SolveHandler runs one bounded search on a YAML instance posted in the body.
// Query parameters iterations and seed override the server configuration.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSolveBody))
	if err != nil {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Body too large", err.Error(), r.URL.Path)
		return
	}
	inst, err := problem.Parse(body)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid instance", err.Error(), r.URL.Path)
		return
	}
	if inst.Name == "" {
		inst.Name = "adhoc"
	}
	cfg := s.Algorithm
	q := r.URL.Query()
	if v := q.Get("iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid iterations", "iterations must be a positive integer", r.URL.Path)
			return
		}
		cfg.Iterations = n
	}
	if cfg.Iterations > maxSolveIterations {
		cfg.Iterations = maxSolveIterations
	}
	if cfg.TimeBudget <= 0 || cfg.TimeBudget > maxSolveTime {
		cfg.TimeBudget = maxSolveTime
	}
	seed := cfg.Seed
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid seed", err.Error(), r.URL.Path)
			return
		}
		seed = n
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Seed = seed

	logger := s.logger().WithFields(log.Fields{"instance": inst.Name, "request": uuid.NewString()})
	runner := &bench.Runner{Algorithm: cfg, Runs: 1, Broker: s.Broker, Metrics: s.Metrics, Logger: logger}
	ctx, cancel := context.WithTimeout(r.Context(), maxSolveTime+5*time.Second)
	defer cancel()
	best, run, err := runner.Solve(ctx, inst, seed, logger)
	if err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Search failed", err.Error(), r.URL.Path)
		return
	}
	res := bench.NewResult(inst, cfg, []bench.Run{run})
	if err := s.Store.SaveResult(ctx, res); err != nil {
		logger.WithError(err).Warn("save solve result")
	}
	writeJSON(w, http.StatusOK, solveResponse{Result: res, Routes: solvedRoutes(best), Unassigned: jobIDs(best.Unassigned())})
}

func solvedRoutes(sol *route.Solution) []solvedRoute {
	out := []solvedRoute{}
	for _, rt := range sol.Routes() {
		if rt.IsEmpty() {
			continue
		}
		out = append(out, solvedRoute{Vehicle: rt.Vehicle().ID, Jobs: jobIDs(rt.Jobs()), Cost: rt.Cost(), Load: rt.Load()})
	}
	return out
}

func jobIDs(jobs []*problem.Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}
