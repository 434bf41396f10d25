// internal/common/camunda/camundatest/gateway.go

// Package camundatest provides a recording Zeebe gateway for handler tests.
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"google.golang.org/grpc"
)

// Gateway records job result commands together with the state of the context
// each one was sent on. Other gateway calls panic.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	Completed []*pb.CompleteJobRequest
	Failed    []*pb.FailJobRequest
	Thrown    []*pb.ThrowErrorRequest
	CtxErrs   []error
}

func (g *Gateway) record(ctx context.Context) error {
	err := ctx.Err()
	g.CtxErrs = append(g.CtxErrs, err)
	return err
}

func (g *Gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(ctx); err != nil {
		return nil, err
	}
	g.Completed = append(g.Completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *Gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(ctx); err != nil {
		return nil, err
	}
	g.Failed = append(g.Failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *Gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record(ctx); err != nil {
		return nil, err
	}
	g.Thrown = append(g.Thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

// Sent returns how many result commands reached the gateway, accepted or not.
func (g *Gateway) Sent() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.CtxErrs)
}

func noRetry(context.Context, error) bool { return false }

type jobClient struct {
	gateway pb.GatewayClient
}

// NewJobClient returns a worker.JobClient whose commands go to gateway.
func NewJobClient(gateway pb.GatewayClient) worker.JobClient {
	return &jobClient{gateway: gateway}
}

func (c *jobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c *jobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c *jobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}
