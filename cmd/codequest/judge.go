package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/judge"
)

var (
	flagJudgeAddr   string
	flagJudgeSecret string
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Run a development judge server",
	Long: `Serves the built-in interpreter over the judge HTTP API, so clients
configured with judge.mode: remote can be tried without the real backend.

  GET  /health
  POST /api/v1/judge/execute

With a secret, requests must carry a bearer JWT signed with it (HS256).

Examples:
  codequest judge --addr :3000
  CODEQUEST_JUDGE_SECRET=s3cret codequest judge`,
	Args: cobra.NoArgs,
	RunE: runJudge,
}

func init() {
	judgeCmd.Flags().StringVar(&flagJudgeAddr, "addr", "", "Listen address (default from config)")
	judgeCmd.Flags().StringVar(&flagJudgeSecret, "secret", "", "Bearer secret required from clients")
}

func runJudge(cmd *cobra.Command, _ []string) error {
	a, err := wire(wireOptions{logToStderr: true, noStore: true, noRemote: true})
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Serve.JudgeAddr
	if flagJudgeAddr != "" {
		addr = flagJudgeAddr
	}
	secret := a.cfg.Serve.JudgeSecret
	if flagJudgeSecret != "" {
		secret = flagJudgeSecret
	}

	logger := a.logger.WithPrefix("judge")
	handler := judge.NewServer(
		judge.NewLocal(judge.WithLocalLogger(logger)),
		judge.WithSecret(secret),
		judge.WithRequestTimeout(a.cfg.JudgeTimeout()),
		judge.WithServerLogger(logger),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("judge listening", "addr", addr, "auth", secret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("judge server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
