// verifierd is the off-chain verification service: it exposes the
// validation gate and the issuance risk monitor over HTTP for the
// request-handling collaborators (dashboards, dispensing clients).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medledger/prescription-chain/analytics"
	"github.com/medledger/prescription-chain/canonical"
	"github.com/medledger/prescription-chain/chainclient"
	"github.com/medledger/prescription-chain/validation"
)

type validateRequest struct {
	PrescriptionID string               `json:"prescriptionId"`
	Patient        canonical.Patient    `json:"patient"`
	Medicines      []canonical.Medicine `json:"medicines"`
}

type rejectionResponse struct {
	Valid   bool                   `json:"valid"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context"`
}

type riskRequest struct {
	PatientHash   string `json:"patientHash"`
	DoctorAddress string `json:"doctorAddress"`
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg := chainclient.LoadConfig()
	ledger := chainclient.New(cfg, logger.With().Str("component", "chainclient").Logger())
	gate := validation.NewGate(ledger, validation.Config{
		Timeout: cfg.Timeout,
		Logger:  logger.With().Str("component", "gate").Logger(),
	})
	monitor := analytics.NewMonitor(nil)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		defer cancel()
		ledgerUp := ledger.Ping(ctx) == nil
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"ledgerUp": ledgerUp,
			"endpoint": cfg.RPCURL,
		})
	})

	e.POST("/api/validate", func(c echo.Context) error {
		var req validateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.PrescriptionID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "prescriptionId is required")
		}

		snap := canonical.Input{Patient: req.Patient, Medicines: req.Medicines}
		result, err := gate.Validate(c.Request().Context(), req.PrescriptionID, snap)
		if err != nil {
			if failure, ok := validation.AsFailure(err); ok {
				return c.JSON(failure.StatusClass(), rejectionResponse{
					Code:    string(failure.Code),
					Message: failure.Message,
					Context: failure.Context,
				})
			}
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, result)
	})

	e.POST("/api/risk", func(c echo.Context) error {
		var req riskRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.PatientHash == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "patientHash is required")
		}
		return c.JSON(http.StatusOK, monitor.RecordIssuance(req.PatientHash, req.DoctorAddress))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()
	logger.Info().Str("port", port).Str("ledger", cfg.RPCURL).Msg("verifierd started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
