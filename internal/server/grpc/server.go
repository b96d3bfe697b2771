// Package grpc runs the gRPC endpoint of the service: read access to claims
// and their document lists for authenticated callers, plus the standard
// health service so orchestrators can check readiness.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cmcs/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName names the document service; the health service reports it
// alongside the overall ("") status.
const ServiceName = "cmcs.DocumentService"

type GRPCServer struct {
	address   string
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
	documents *documentServer
}

func NewGRPCServer(a string, l logging.Logger, secretKey string, claims ClaimReader, docs DocumentLister) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
		documents: &documentServer{claims: claims, docs: docs},
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done. Health status is
// SERVING while accepting and NOT_SERVING once shutdown begins.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	srv.RegisterService(&documentServiceDesc, s.documents)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
