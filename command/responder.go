package command

import (
	"errors"
	"os"
	"strconv"

	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/MixinNetwork/udpfs/storage"
)

// Route is the responding side of one command.
type Route interface {
	Name() Name
	Serve(payload []byte) ([]byte, error)
}

type route[I, O any] struct {
	name   Name
	decode func(payload []byte) (I, error)
	handle func(in I) (O, error)
	encode func(out O) ([]byte, error)
}

func (r *route[I, O]) Name() Name {
	return r.name
}

// Serve decodes the request payload, runs the operation and returns the
// full response content.
func (r *route[I, O]) Serve(payload []byte) ([]byte, error) {
	in, err := r.decode(payload)
	if err != nil {
		return nil, err
	}
	out, err := r.handle(in)
	if err != nil {
		return nil, err
	}
	data, err := r.encode(out)
	if err != nil {
		return nil, err
	}
	return JoinContent(r.name, data), nil
}

type file struct {
	name string
	data []byte
}

type Responder struct {
	store  storage.Store
	routes [nameCount]Route
}

func NewResponder(store storage.Store) *Responder {
	r := &Responder{store: store}
	r.routes = [nameCount]Route{
		List: &route[struct{}, []*storage.Entry]{name: List, decode: r.decodeList, handle: r.handleList, encode: r.encodeList},
		Get:  &route[string, *file]{name: Get, decode: r.decodeGet, handle: r.handleGet, encode: r.encodeGet},
		Put:  &route[*file, int]{name: Put, decode: r.decodePut, handle: r.handlePut, encode: r.encodePut},
	}
	return r
}

func (r *Responder) Lookup(name string) (Route, error) {
	n, ok := ParseName(name)
	if !ok {
		return nil, protocol.NewError(protocol.KindUnknownCommand, "invalid server command")
	}
	return r.routes[n], nil
}

func (r *Responder) decodeList(payload []byte) (struct{}, error) {
	return struct{}{}, nil
}

func (r *Responder) handleList(struct{}) ([]*storage.Entry, error) {
	entries, err := r.store.List()
	if err != nil {
		return nil, protocol.NewError(protocol.KindPayload, "could not list files")
	}
	return entries, nil
}

func (r *Responder) encodeList(entries []*storage.Entry) ([]byte, error) {
	return compressMsgpackMarshal(entries)
}

func (r *Responder) decodeGet(payload []byte) (string, error) {
	name := string(payload)
	if err := storage.ValidName(name); err != nil {
		return "", protocol.NewError(protocol.KindPayload, "invalid file name %s", name)
	}
	return name, nil
}

func (r *Responder) handleGet(name string) (*file, error) {
	data, err := r.store.Read(name)
	if err != nil {
		return nil, readError(name, err)
	}
	return &file{name: name, data: data}, nil
}

func (r *Responder) encodeGet(f *file) ([]byte, error) {
	return joinFile(f.name, f.data), nil
}

func (r *Responder) decodePut(payload []byte) (*file, error) {
	name, data, ok := splitFile(payload)
	if !ok {
		return nil, protocol.NewError(protocol.KindPayload, "invalid put payload")
	}
	return &file{name: name, data: data}, nil
}

func (r *Responder) handlePut(f *file) (int, error) {
	n, err := r.store.Write(f.name, f.data)
	if err != nil {
		return 0, writeError(f.name, err)
	}
	return n, nil
}

func (r *Responder) encodePut(n int) ([]byte, error) {
	return []byte(strconv.Itoa(n)), nil
}

func readError(name string, err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return protocol.NewError(protocol.KindPayload, "invalid file name %s", name)
	case errors.Is(err, os.ErrNotExist):
		return protocol.NewError(protocol.KindPayload, "file not found %s", name)
	default:
		return protocol.NewError(protocol.KindPayload, "could not open file %s", name)
	}
}

func writeError(name string, err error) error {
	if errors.Is(err, storage.ErrInvalidName) {
		return protocol.NewError(protocol.KindPayload, "invalid file name %s", name)
	}
	return protocol.NewError(protocol.KindPayload, "could not write file %s", name)
}
