package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/andy/apothecary/internal/httpapi"
	"github.com/andy/apothecary/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the overdue sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := appInstance.Logger
		if !appInstance.Level.Enabled(zapcore.InfoLevel) {
			appInstance.Level.SetLevel(zapcore.InfoLevel)
		}

		addr := appInstance.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		gin.SetMode(gin.ReleaseMode)
		api := httpapi.NewServer(httpapi.Services{
			Orders:   appInstance.OrderService,
			Invoices: appInstance.InvoiceService,
			Stock:    appInstance.StockService,
			Reports:  appInstance.ReportService,
		}, logger)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.Engine(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		sweeper := service.NewOverdueSweeper(appInstance.InvoiceService, appInstance.Config.Sweeper.Interval, logger)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info("http server listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			return sweeper.Run(gctx)
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
}
