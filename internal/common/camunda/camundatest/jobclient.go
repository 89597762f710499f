// Package camundatest provides an in-memory worker.JobClient for handler tests.
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

type CommandKind string

const (
	Completed CommandKind = "complete"
	Failed    CommandKind = "fail"
	Thrown    CommandKind = "throw"
)

// Command is one command a handler sent for a job. ContextErr is the state
// of the context the command was sent with.
type Command struct {
	Kind       CommandKind
	JobKey     int64
	Retries    int32
	ErrorCode  string
	Message    string
	Variables  string
	ContextErr error
}

// JobClient answers complete, fail and throw commands without a broker.
type JobClient struct {
	mu       sync.Mutex
	commands []Command
}

func NewJobClient() *JobClient {
	return &JobClient{}
}

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(gateway{client: c}, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(gateway{client: c}, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(gateway{client: c}, noRetry)
}

// Commands returns every command sent so far, in order.
func (c *JobClient) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Command, len(c.commands))
	copy(out, c.commands)
	return out
}

// Last returns the most recent command, or false when none was sent.
func (c *JobClient) Last() (Command, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.commands) == 0 {
		return Command{}, false
	}
	return c.commands[len(c.commands)-1], true
}

func (c *JobClient) record(ctx context.Context, cmd Command) {
	cmd.ContextErr = ctx.Err()
	c.mu.Lock()
	c.commands = append(c.commands, cmd)
	c.mu.Unlock()
}

func noRetry(context.Context, error) bool { return false }

// gateway implements the three job RPCs; any other call panics on the nil
// embedded client.
type gateway struct {
	pb.GatewayClient
	client *JobClient
}

func (g gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.client.record(ctx, Command{Kind: Completed, JobKey: in.JobKey, Variables: in.Variables})
	return &pb.CompleteJobResponse{}, nil
}

func (g gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.client.record(ctx, Command{
		Kind:      Failed,
		JobKey:    in.JobKey,
		Retries:   in.Retries,
		Message:   in.ErrorMessage,
		Variables: in.Variables,
	})
	return &pb.FailJobResponse{}, nil
}

func (g gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.client.record(ctx, Command{
		Kind:      Thrown,
		JobKey:    in.JobKey,
		ErrorCode: in.ErrorCode,
		Message:   in.ErrorMessage,
		Variables: in.Variables,
	})
	return &pb.ThrowErrorResponse{}, nil
}
