// cmd/nlu-worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"assistant-nlu/internal/api"
	"assistant-nlu/internal/common/camunda"
	"assistant-nlu/internal/common/config"
	"assistant-nlu/internal/common/database"
	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/observability"
	"assistant-nlu/internal/nlu/convcontext"
	"assistant-nlu/internal/nlu/llm"
	"assistant-nlu/internal/nlu/orchestrator"
	"assistant-nlu/internal/nlu/rules"
	"assistant-nlu/internal/nlu/timeparse"

	pte "assistant-nlu/internal/workers/nlu/parse-time-expression"
	pu "assistant-nlu/internal/workers/nlu/process-utterance"
	"assistant-nlu/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting NLU worker...",
		zap.String("environment", cfg.App.Environment),
		zap.String("llmProvider", cfg.LLM.Provider),
	)

	obs := observability.NewWithOptions(observability.Options{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Redis with retry ---
	// Redis backs the LLM reply cache and the conversation context. The
	// pipeline still classifies without it.
	redisClient := database.NewRedis(cfg.Redis)
	defer redisClient.Close()

	var rdb redis.Cmdable
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Warn("redis unavailable, running without reply cache and conversation context", zap.Error(err))
	} else {
		rdb = redisClient.GetClient()
		zapLog.Info("Redis connected successfully")
	}

	// --- NLU pipeline ---
	times := timeparse.New()

	backend, err := llm.NewBackend(ctx, cfg.LLM, rdb, log)
	if err != nil {
		zapLog.Fatal("llm backend init failed", zap.Error(err))
	}

	opts := []orchestrator.Option{
		orchestrator.WithMinNoteLength(cfg.NLU.MinNoteLength),
		orchestrator.WithObservability(obs),
	}
	if backend != nil {
		adapter := llm.NewAdapter(backend, log,
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithTimeout(config.GetDuration(cfg.LLM.Timeout)),
			llm.WithTimeParser(times),
		)
		opts = append(opts, orchestrator.WithAdapter(adapter))
		zapLog.Info("LLM stage enabled", zap.String("provider", adapter.Provider()))
	} else {
		zapLog.Info("LLM stage disabled, rules and heuristic only")
	}

	pipeline := orchestrator.New(rules.NewEngine(times, log), log, opts...)

	var store pu.ContextStore
	if rdb != nil {
		store = convcontext.NewStore(rdb, cfg.NLU.ContextMaxTurns, time.Duration(cfg.NLU.ContextTTL)*time.Second, log)
	}

	puCfg := pu.LoadConfig()
	puCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, pu.TaskType).Timeout)
	processor := pu.NewHandler(puCfg, pipeline, store, &processUtteranceLoggerAdapter{log})

	pteCfg := pte.LoadConfig()
	pteCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, pte.TaskType).Timeout)
	timeHandler := pte.NewHandler(pteCfg, times, &parseTimeLoggerAdapter{log})

	readiness := map[string]api.ReadinessCheck{}
	if rdb != nil {
		readiness["redis"] = redisClient.Ping
	}

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.Plaintext,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		readiness["zeebe"] = zeebeClient.HealthCheck

		activities, err := registry.Default()
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.Error(err))
		}
		errorHandler := apperrors.NewErrorHandler(log)

		client := zeebeClient.GetClient()
		for taskType, handle := range map[string]camunda.HandlerFunc{
			pu.TaskType:  processor.Handle,
			pte.TaskType: timeHandler.Handle,
		} {
			activity, ok := activities.Find(taskType)
			if !ok {
				zapLog.Fatal("task type missing from activity registry", zap.String("taskType", taskType))
			}
			handle = camunda.ValidateInput(activity.ValidateInput, errorHandler, handle)
			if jw := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handle, zapLog); jw != nil {
				jobWorkers = append(jobWorkers, jw)
			}
		}
		zapLog.Info("Job workers registered", zap.Int("count", len(jobWorkers)))
	} else {
		zapLog.Info("camunda disabled, serving HTTP only")
	}

	// --- HTTP API, health & metrics ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(processor, timeHandler, readiness, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")

		for _, jw := range jobWorkers {
			jw.Close()
			jw.AwaitClose()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("NLU worker stopped with error", zap.Error(err))
	}

	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("NLU worker stopped")
}

// Logger adapters bridge logger.Logger to each worker package's Logger,
// whose With returns the package-local interface.
type processUtteranceLoggerAdapter struct {
	logger.Logger
}

func (a *processUtteranceLoggerAdapter) With(fields map[string]interface{}) pu.Logger {
	return &processUtteranceLoggerAdapter{a.Logger.With(fields)}
}

type parseTimeLoggerAdapter struct {
	logger.Logger
}

func (a *parseTimeLoggerAdapter) With(fields map[string]interface{}) pte.Logger {
	return &parseTimeLoggerAdapter{a.Logger.With(fields)}
}
