package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ai-date-planner/internal/metrics"
	"ai-date-planner/internal/planner"

	"github.com/gin-gonic/gin/binding"
)

// PlanGenerator produces a plan for a single request.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req planner.PlanRequest) (planner.PlanResponse, error)
}

// App holds the dependencies of the command line entry points.
type App struct {
	planner      PlanGenerator
	metricsStore *metrics.Store
}

// NewApp creates and initializes a new App instance. metricsStore may be nil.
func NewApp(planner PlanGenerator, metricsStore *metrics.Store) *App {
	return &App{
		planner:      planner,
		metricsStore: metricsStore,
	}
}

// GeneratePlan reads a plan request as JSON from in and writes the plan response to out.
func (a *App) GeneratePlan(ctx context.Context, in io.Reader, out io.Writer) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	// Same decoding and required-field rules as POST /generate-plan
	var reqBody planner.PlanRequestBody
	if err := binding.JSON.BindBody(body, &reqBody); err != nil {
		return fmt.Errorf("invalid plan request: %w", err)
	}

	resp, err := a.planner.GeneratePlan(ctx, reqBody.PlanRequest())
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

// CleanupMetrics removes usage records older than the given number of days.
func (a *App) CleanupMetrics(ctx context.Context, days int, out io.Writer) error {
	if a.metricsStore == nil {
		return errors.New("metrics are disabled: set METRICS_DB_PATH")
	}
	if days < 0 {
		return fmt.Errorf("days must not be negative, got %d", days)
	}

	affected, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(out, "Successfully removed %d old metric records.\n", affected)
	return nil
}
