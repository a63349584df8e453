package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
)

// #region client-struct
// Client wraps the gRPC connection to an admissibility service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the admissibility gRPC server.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Close is a no-op for such clients.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #region evaluate
// Evaluate sends one record to the service.
func (c *Client) Evaluate(ctx context.Context, rec canon.Record) (logging.EvaluationRecord, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"r": rec.R, "c": rec.C, "p": rec.P})
	if err != nil {
		return logging.EvaluationRecord{}, fmt.Errorf("build request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, evaluateMethod, req, resp); err != nil {
		return logging.EvaluationRecord{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return fromStruct(resp)
}

// #endregion evaluate
