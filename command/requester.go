package command

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/MixinNetwork/udpfs/storage"
)

// Request is the initiating side of one command: it encodes the user
// arguments and decodes the responder result.
type Request interface {
	Name() Name
	Encode(args string) ([]byte, error)
	Decode(payload []byte) (fmt.Stringer, error)
}

type call[R fmt.Stringer] struct {
	name   Name
	encode func(args string) ([]byte, error)
	decode func(payload []byte) (R, error)
}

func (c *call[R]) Name() Name {
	return c.name
}

func (c *call[R]) Encode(args string) ([]byte, error) {
	payload, err := c.encode(args)
	if err != nil {
		return nil, err
	}
	return JoinContent(c.name, payload), nil
}

func (c *call[R]) Decode(payload []byte) (fmt.Stringer, error) {
	return c.decode(payload)
}

type ListResult struct {
	Entries []*storage.Entry
}

func (r *ListResult) String() string {
	if len(r.Entries) == 0 {
		return "no files"
	}
	lines := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		lines[i] = fmt.Sprintf("%s\t%d", e.Name, e.Size)
	}
	return strings.Join(lines, "\n")
}

type GetResult struct {
	Name string
	Size int
}

func (r *GetResult) String() string {
	return fmt.Sprintf("received %d bytes", r.Size)
}

type PutResult struct {
	Size int
}

func (r *PutResult) String() string {
	return fmt.Sprintf("sent %d bytes", r.Size)
}

// Requester is the initiator registry, its files live in a local store.
type Requester struct {
	store  storage.Store
	routes [nameCount]Request
}

func NewRequester(store storage.Store) *Requester {
	r := &Requester{store: store}
	r.routes = [nameCount]Request{
		List: &call[*ListResult]{name: List, encode: r.encodeList, decode: r.decodeList},
		Get:  &call[*GetResult]{name: Get, encode: r.encodeGet, decode: r.decodeGet},
		Put:  &call[*PutResult]{name: Put, encode: r.encodePut, decode: r.decodePut},
	}
	return r
}

func (r *Requester) Lookup(name string) (Request, error) {
	n, ok := ParseName(name)
	if !ok {
		return nil, protocol.NewError(protocol.KindUnknownCommand, "invalid client command")
	}
	return r.routes[n], nil
}

// Result checks a reassembled response against the request and decodes it.
func (r *Requester) Result(req Request, content []byte) (fmt.Stringer, error) {
	if reason, ok := protocol.ParseError(content); ok {
		return nil, protocol.NewError(protocol.KindCommand, "%s", reason)
	}
	prefix := JoinContent(req.Name(), nil)
	if !bytes.HasPrefix(content, prefix) {
		return nil, protocol.NewError(protocol.KindCommand, "invalid response command")
	}
	return req.Decode(content[len(prefix):])
}

func (r *Requester) encodeList(args string) ([]byte, error) {
	return nil, nil
}

func (r *Requester) decodeList(payload []byte) (*ListResult, error) {
	var entries []*storage.Entry
	err := decompressMsgpackUnmarshal(payload, &entries)
	if err != nil {
		return nil, protocol.NewError(protocol.KindPayload, "invalid list payload")
	}
	return &ListResult{Entries: entries}, nil
}

func (r *Requester) encodeGet(args string) ([]byte, error) {
	if err := storage.ValidName(args); err != nil {
		return nil, protocol.NewError(protocol.KindPayload, "invalid file name %s", args)
	}
	return []byte(args), nil
}

func (r *Requester) decodeGet(payload []byte) (*GetResult, error) {
	name, data, ok := splitFile(payload)
	if !ok {
		return nil, protocol.NewError(protocol.KindPayload, "invalid get payload")
	}
	n, err := r.store.Write(name, data)
	if err != nil {
		return nil, writeError(name, err)
	}
	return &GetResult{Name: name, Size: n}, nil
}

func (r *Requester) encodePut(args string) ([]byte, error) {
	data, err := r.store.Read(args)
	if err != nil {
		return nil, readError(args, err)
	}
	return joinFile(args, data), nil
}

func (r *Requester) decodePut(payload []byte) (*PutResult, error) {
	n, err := strconv.Atoi(string(payload))
	if err != nil {
		return nil, protocol.NewError(protocol.KindPayload, "invalid put payload %s", payload)
	}
	return &PutResult{Size: n}, nil
}
