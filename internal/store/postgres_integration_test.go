//go:build postgres_integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	best := 100.0
	r := Result{Instance: "it-demo", Algorithm: "best", Runs: 2, CostMin: 101, CostMean: 102, CostMax: 103,
		BestKnownCost: &best, Weights: map[string]float64{"random": 1.2}}
	if err := p.SaveResult(context.Background(), r); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	list, err := p.ListResults(context.Background(), "it-demo", 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListResults: %v %v", list, err)
	}
	got, err := p.GetResult(context.Background(), list[0].ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.CostMean != 102 || got.BestKnownCost == nil || got.Weights["random"] != 1.2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if _, err := p.GetResult(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
