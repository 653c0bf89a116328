package grpcstore

import (
	"context"
	"errors"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"examlock.dev/sebconf/artifact"
	"examlock.dev/sebconf/storage"
)

// ErrClientNotConnected reports a call on a zero-value or closed Client.
var ErrClientNotConnected = errors.New("grpcstore: client not connected")

// Client implements storage.Store over the ArtifactStore gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client ArtifactStoreClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

// DialOptions configures Dial.
type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero. Sealed exam
	// files are small, but embedded resources can push past the gRPC
	// default.
	MaxMsgBytes int
}

// Dial connects to an ArtifactStore service.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewArtifactStoreClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(data []byte) (cid.Cid, error) {
	if c == nil || c.client == nil {
		return cid.Undef, ErrClientNotConnected
	}
	expected, err := artifact.IDCid(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidID
	}
	if !id.Equals(expected) {
		return cid.Undef, storage.ErrIDMismatch
	}
	return id, nil
}

func (c *Client) Get(id cid.Cid) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, ErrClientNotConnected
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidID
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	got, err := artifact.IDCid(b)
	if err != nil {
		return nil, err
	}
	if !got.Equals(id) {
		return nil, storage.ErrIDMismatch
	}
	return b, nil
}

func (c *Client) Has(id cid.Cid) bool {
	if c == nil || c.client == nil || !id.Defined() {
		return false
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
