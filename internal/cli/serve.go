package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/transition-gate/internal/codec"
	"github.com/danielpatrickdp/transition-gate/internal/httpapi"
)

type serveOptions struct {
	httpAddr string
	grpcAddr string
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gate over HTTP and gRPC",
		Long: `Serve POST /v1/evaluate, GET /v1/thresholds and GET /healthz over HTTP and
ssts.gate.v1.AdmissibilityService/Evaluate over gRPC. An empty address
disables that transport.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP listen address (overrides SSTS_HTTP_ADDR)")
	cmd.Flags().StringVar(&opts.grpcAddr, "grpc-addr", "", "gRPC listen address (overrides SSTS_GRPC_ADDR)")
	return cmd
}

func (a *App) runServe(cmd *cobra.Command, opts *serveOptions) error {
	env, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close(context.Background())

	httpAddr, grpcAddr := env.cfg.HTTPAddr, env.cfg.GRPCAddr
	if cmd.Flags().Changed("http-addr") {
		httpAddr = opts.httpAddr
	}
	if cmd.Flags().Changed("grpc-addr") {
		grpcAddr = opts.grpcAddr
	}
	if httpAddr == "" && grpcAddr == "" {
		return usagef("at least one of --http-addr or --grpc-addr is required")
	}

	var db *sql.DB
	if env.store != nil {
		db = env.store.DB()
	}

	grp, ctx := errgroup.WithContext(cmd.Context())

	if httpAddr != "" {
		srv := &http.Server{
			Addr:              httpAddr,
			Handler:           httpapi.NewServer(env.gate, env.store, env.logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		grp.Go(func() error {
			env.logger.Info().Str("addr", httpAddr).Msg("http listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http serve: %w", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", grpcAddr, err)
		}
		gs := grpc.NewServer()
		codec.Register(gs, codec.NewServer(env.gate, db, env.logger))
		grp.Go(func() error {
			env.logger.Info().Str("addr", grpcAddr).Msg("grpc listening")
			if err := gs.Serve(lis); err != nil {
				return fmt.Errorf("grpc serve: %w", err)
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	return grp.Wait()
}
