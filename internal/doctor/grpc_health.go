package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkGRPCHealth asks the recognizer gateway's gRPC health service for the
// overall serving status.
func checkGRPCHealth(ctx context.Context, target string, dialTimeout time.Duration) Check {
	const name = "recognizer.health_grpc"
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("dial %q: %v", target, err)}
	}
	defer func() { _ = conn.Close() }()

	readyCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("wait for readiness: %v", err)}
	}

	resp, err := healthpb.NewHealthClient(conn).Check(readyCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("health check failed: %v", err)}
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("status %s at %s", resp.GetStatus(), target)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("serving at %s", target)}
}

// waitForReady blocks until the connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
