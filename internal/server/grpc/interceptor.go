package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/server/auth"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// publicPrefix marks methods callable without a token.
const publicPrefix = "/grpc.health.v1.Health/"

// PrincipalFromContext returns the caller set by the access token
// interceptor.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if strings.HasPrefix(info.FullMethod, publicPrefix) {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, principalKey, p), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	if code == codes.Internal || code == codes.Unknown {
		s.logger.Error(ctx, "rpc failed", "method", info.FullMethod, "code", code.String(), "error", err)
	} else {
		s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	}
	return resp, err
}
