package transport

import (
	"github.com/ValentinKolb/oKV/rpc/common"
)

// ServerHandleFunc answers one serialized request addressed to shardId
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport receives requests and passes them to the registered handler
type IRPCServerTransport interface {
	// RegisterHandler sets the function every incoming request is passed to.
	// It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen serves requests on config.Endpoint until the transport fails
	Listen(config common.ServerConfig) error
}

// IRPCClientTransport delivers serialized requests to a server
type IRPCClientTransport interface {
	// Connect prepares the transport for the endpoints in config
	Connect(config common.ClientConfig) error
	// Send delivers req to shardId and returns the raw response.
	// Implementations may retry on other endpoints before returning an error.
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close releases the resources of the transport
	Close() error
}
