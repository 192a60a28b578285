package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

const schema = `CREATE TABLE IF NOT EXISTS benchmark_results (
    id              uuid PRIMARY KEY,
    instance        text NOT NULL,
    algorithm       text NOT NULL,
    runs            int NOT NULL,
    cost_min        double precision NOT NULL,
    cost_mean       double precision NOT NULL,
    cost_max        double precision NOT NULL,
    cost_stddev     double precision NOT NULL,
    vehicles_min    int NOT NULL,
    vehicles_mean   double precision NOT NULL,
    vehicles_max    int NOT NULL,
    time_mean_sec   double precision NOT NULL,
    unassigned_max  int NOT NULL,
    best_known_cost double precision,
    delta_pct       double precision,
    weights         jsonb,
    created_at      timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS benchmark_results_instance_idx ON benchmark_results (instance, created_at DESC);`

// EnsureSchema creates the results table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) SaveResult(ctx context.Context, r Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	weights, err := weightsJSON(r.Weights)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO benchmark_results (id, instance, algorithm, runs, cost_min, cost_mean, cost_max, cost_stddev, vehicles_min, vehicles_mean, vehicles_max, time_mean_sec, unassigned_max, best_known_cost, delta_pct, weights, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        ON CONFLICT (id) DO UPDATE SET runs=$4, cost_min=$5, cost_mean=$6, cost_max=$7, cost_stddev=$8, vehicles_min=$9, vehicles_mean=$10, vehicles_max=$11, time_mean_sec=$12, unassigned_max=$13, best_known_cost=$14, delta_pct=$15, weights=$16`,
		r.ID, r.Instance, r.Algorithm, r.Runs, r.CostMin, r.CostMean, r.CostMax, r.CostStdDev,
		r.VehiclesMin, r.VehiclesMean, r.VehiclesMax, r.TimeMeanSec, r.UnassignedMax,
		nullFloat(r.BestKnownCost), nullFloat(r.DeltaPct), weights, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	return nil
}

const selectResult = `SELECT id::text, instance, algorithm, runs, cost_min, cost_mean, cost_max, cost_stddev, vehicles_min, vehicles_mean, vehicles_max, time_mean_sec, unassigned_max, best_known_cost, delta_pct, weights, created_at FROM benchmark_results`

func (p *Postgres) GetResult(ctx context.Context, id string) (Result, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Result{}, ErrNotFound
	}
	r, err := scanResult(p.db.QueryRowContext(ctx, selectResult+` WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) ListResults(ctx context.Context, instance string, limit int) ([]Result, error) {
	q := selectResult
	args := []any{}
	if instance != "" {
		q += ` WHERE instance=$1`
		args = append(args, instance)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, clampLimit(limit))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (Result, error) {
	var (
		r         Result
		best, dlt sql.NullFloat64
		weights   []byte
	)
	err := s.Scan(&r.ID, &r.Instance, &r.Algorithm, &r.Runs, &r.CostMin, &r.CostMean, &r.CostMax, &r.CostStdDev,
		&r.VehiclesMin, &r.VehiclesMean, &r.VehiclesMax, &r.TimeMeanSec, &r.UnassignedMax, &best, &dlt, &weights, &r.CreatedAt)
	if err != nil {
		return Result{}, err
	}
	r.BestKnownCost = floatPtr(best)
	r.DeltaPct = floatPtr(dlt)
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &r.Weights); err != nil {
			return Result{}, fmt.Errorf("decode weights: %w", err)
		}
	}
	return r, nil
}

func weightsJSON(w map[string]float64) (any, error) {
	if len(w) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
