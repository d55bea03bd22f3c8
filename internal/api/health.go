// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

// # Health Probes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/cmsrest/internal/platform/constants"
	"github.com/taibuivan/cmsrest/internal/platform/respond"
)

// probeTimeout bounds each readiness check so a hung dependency cannot hold
// the probe past the orchestrator's own deadline.
const probeTimeout = 3 * time.Second

// Probe is one readiness dependency, e.g. the Store or the tag cache.
type Probe struct {
	Name  string
	Check func(context.Context) error
}

type probeResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	probes []Probe
	logger *slog.Logger
}

/*
NewHealthHandlers builds the /health and /ready handlers.

Description: /health only proves the process serves HTTP. /ready runs every
probe and answers 503 "degraded" when any of them fails.
*/
func NewHealthHandlers(probes []Probe, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{probes: probes, logger: logger}
	return handler.liveness, handler.readiness
}

func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]probeResult, 0, len(handler.probes))
	ready := true

	for _, probe := range handler.probes {
		ctx, cancel := context.WithTimeout(request.Context(), probeTimeout)
		err := probe.Check(ctx)
		cancel()

		result := probeResult{Name: probe.Name, OK: err == nil}
		if err != nil {
			ready = false
			result.Error = err.Error()
			handler.logger.Error("readiness_check_failed", slog.String("dependency", probe.Name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}
