// Package grpc is an optional schema.Client transport adapter that
// invokes a remote catalogue service over gRPC using dynamic proto
// messages instead of generated stubs: the service descriptor is parsed
// from an embedded .proto at dial time, so deployments can point it at
// any catalogue exposing this shape. internal/schema never imports this
// package; wiring flows adapter -> core interface.
package grpc

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/thingtalk-lang/ttcore/internal/schema"
)

// serviceProto describes the catalogue RPC surface the adapter invokes.
// The adapter parses this embedded copy, not a .proto on disk; a
// deployment's catalogue service must match its shape (method names and
// field names), which the dynamic invocation looks up.
const serviceProto = `
syntax = "proto3";
package thingtalk.catalogue;

message DeviceCodeRequest { string kind = 1; }
message DeviceCodeResponse { string code = 1; }

message SchemasRequest { repeated string kinds = 1; bool include_metadata = 2; }
message SchemasResponse { string schema = 1; }

message MixinsRequest {}
message MixinDoc {
  string name = 1;
  string kind = 2;
  repeated string args = 3;
  repeated string types = 4;
  repeated bool required = 5;
  repeated bool is_input = 6;
  repeated string facets = 7;
}
message MixinsResponse { repeated MixinDoc mixins = 1; }

service Catalogue {
  rpc GetDeviceCode(DeviceCodeRequest) returns (DeviceCodeResponse);
  rpc GetSchemas(SchemasRequest) returns (SchemasResponse);
  rpc GetMixins(MixinsRequest) returns (MixinsResponse);
}
`

// Client is a schema.Client backed by a gRPC connection to a catalogue
// service, invoked dynamically against serviceProto's descriptor.
type Client struct {
	conn    *grpc.ClientConn
	service *desc.ServiceDescriptor
}

var _ schema.Client = (*Client)(nil)

// Dial connects to target and loads the catalogue service descriptor.
func Dial(target string) (*Client, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc: dial %s: %w", target, err)
	}
	accessor := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"catalogue.proto": serviceProto}),
	}
	fds, err := accessor.ParseFiles("catalogue.proto")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("grpc: parse catalogue.proto: %w", err)
	}
	svc := fds[0].FindService("thingtalk.catalogue.Catalogue")
	if svc == nil {
		conn.Close()
		return nil, fmt.Errorf("grpc: service Catalogue not found in descriptor")
	}
	return &Client{conn: conn, service: svc}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req *dynamic.Message) (*dynamic.Message, error) {
	md := c.service.FindMethodByName(method)
	if md == nil {
		return nil, fmt.Errorf("grpc: method %s not found", method)
	}
	stub := dynamic.NewMessage(md.GetOutputType())
	fullMethod := fmt.Sprintf("/%s/%s", c.service.GetFullyQualifiedName(), method)
	if err := c.conn.Invoke(ctx, fullMethod, req, stub); err != nil {
		return nil, fmt.Errorf("grpc: invoke %s: %w", method, err)
	}
	return stub, nil
}

// GetDeviceCode implements schema.Client.
func (c *Client) GetDeviceCode(ctx context.Context, kind string) (string, error) {
	md := c.service.FindMethodByName("GetDeviceCode")
	req := dynamic.NewMessage(md.GetInputType())
	req.SetFieldByName("kind", kind)
	resp, err := c.invoke(ctx, "GetDeviceCode", req)
	if err != nil {
		return "", err
	}
	code, _ := resp.TryGetFieldByName("code")
	s, _ := code.(string)
	return s, nil
}

// GetSchemas implements schema.Client.
func (c *Client) GetSchemas(ctx context.Context, kinds []string, includeMetadata bool) (string, error) {
	md := c.service.FindMethodByName("GetSchemas")
	req := dynamic.NewMessage(md.GetInputType())
	kindsField := make([]interface{}, len(kinds))
	for i, k := range kinds {
		kindsField[i] = k
	}
	req.SetFieldByName("kinds", kindsField)
	req.SetFieldByName("include_metadata", includeMetadata)
	resp, err := c.invoke(ctx, "GetSchemas", req)
	if err != nil {
		return "", err
	}
	v, _ := resp.TryGetFieldByName("schema")
	s, _ := v.(string)
	return s, nil
}

// GetMixins implements schema.Client.
func (c *Client) GetMixins(ctx context.Context) (map[string]schema.MixinDef, error) {
	md := c.service.FindMethodByName("GetMixins")
	req := dynamic.NewMessage(md.GetInputType())
	resp, err := c.invoke(ctx, "GetMixins", req)
	if err != nil {
		return nil, err
	}
	out := make(map[string]schema.MixinDef)
	raw, _ := resp.TryGetFieldByName("mixins")
	items, _ := raw.([]interface{})
	for _, item := range items {
		msg, ok := item.(*dynamic.Message)
		if !ok {
			continue
		}
		name, _ := msg.TryGetFieldByName("name")
		kind, _ := msg.TryGetFieldByName("kind")
		nameStr, _ := name.(string)
		out[nameStr] = schema.MixinDef{
			Kind:     stringOr(kind),
			Args:     stringsField(msg, "args"),
			Types:    stringsField(msg, "types"),
			Required: boolsField(msg, "required"),
			IsInput:  boolsField(msg, "is_input"),
			Facets:   stringsField(msg, "facets"),
		}
	}
	return out, nil
}

func stringOr(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringsField(msg *dynamic.Message, name string) []string {
	raw, _ := msg.TryGetFieldByName(name)
	items, _ := raw.([]interface{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolsField(msg *dynamic.Message, name string) []bool {
	raw, _ := msg.TryGetFieldByName(name)
	items, _ := raw.([]interface{})
	out := make([]bool, 0, len(items))
	for _, it := range items {
		if b, ok := it.(bool); ok {
			out = append(out, b)
		}
	}
	return out
}
