package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// runSimulation drifts the temperature towards the setpoint with some noise
// and raises a warning alarm when it strays more than two degrees away.
func runSimulation(ctx context.Context, t *thermostat, logger *slog.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	logger.Info("[SIM] Simulation started")
	defer logger.Info("[SIM] Simulation stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		temp := currentFloat(ctx, t, attrTemperature)
		setpoint := currentFloat(ctx, t, attrSetpoint)

		temp += (setpoint-temp)*0.1 + (rand.Float64()-0.5)*0.6
		temp = float64(int(temp*10)) / 10
		t.temperature.Set(temp)

		if diff := temp - setpoint; diff > 2 || diff < -2 {
			if err := t.Fire(2, "temperature out of range", nil); err != nil {
				logger.Warn("[SIM] Alarm failed", "error", err)
			}
		}
	}
}

func currentFloat(ctx context.Context, t *thermostat, attribute string) float64 {
	var (
		v   any
		err error
	)
	switch attribute {
	case attrTemperature:
		v, err = t.temperature.Get(ctx)
	case attrSetpoint:
		v, err = t.setpoint.Get(ctx)
	}
	if err != nil {
		return 0
	}
	f, _ := v.(float64)
	return f
}
