package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/mheran/vegclass/config"
	"github.com/mheran/vegclass/onnx"
	"github.com/mheran/vegclass/server"
	"github.com/mheran/vegclass/service"
	ort "github.com/yalue/onnxruntime_go"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	slog.Info("Starting vegclass")

	ort.SetSharedLibraryPath(onnx.LibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("Failed to initialize ONNX Runtime environment", slog.String("error", err.Error()))
		return
	}
	defer ort.DestroyEnvironment()

	scorer, err := service.Resolve()
	if err != nil {
		// Not fatal: serve in the unavailable state until an operator
		// deploys an artifact and restarts.
		slog.Error("Model load failed, serving unavailable", slog.String("error", err.Error()))
		scorer = nil
	}
	classifier := service.NewClassifier(scorer)
	defer classifier.Close()

	h := server.New(classifier)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(server.CORS())
	r.Use(server.RequestLogger())
	r.POST("/predict", h.Predict)
	r.GET("/health", h.Health)

	addr := config.C().Host + ":" + config.C().Port
	slog.Info("Listening on", slog.String("address", addr))
	go func() {
		if err := r.Run(addr); err != nil {
			slog.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}
