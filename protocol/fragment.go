package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/MixinNetwork/udpfs/config"
)

const FragmentHeaderSize = config.SequenceSize + len(config.Delimiter)

var (
	delimiter  = []byte(config.Delimiter)
	terminator = []byte(config.Terminator)
)

type Fragment struct {
	Sequence uint64
	Chunk    []byte
}

func (f *Fragment) Encode() []byte {
	data := make([]byte, FragmentHeaderSize+len(f.Chunk))
	binary.BigEndian.PutUint64(data, f.Sequence)
	copy(data[config.SequenceSize:], delimiter)
	copy(data[FragmentHeaderSize:], f.Chunk)
	return data
}

func ParseFragment(data []byte) (*Fragment, error) {
	if len(data) < FragmentHeaderSize {
		return nil, NewError(KindIntegrity, "malformed fragment size %d", len(data))
	}
	if !bytes.Equal(data[config.SequenceSize:FragmentHeaderSize], delimiter) {
		return nil, NewError(KindIntegrity, "malformed fragment delimiter")
	}
	return &Fragment{
		Sequence: binary.BigEndian.Uint64(data),
		Chunk:    data[FragmentHeaderSize:],
	}, nil
}

// IsTerminal reports whether a raw datagram closes a message.
func IsTerminal(data []byte) bool {
	return len(data) == 0 || bytes.HasSuffix(data, terminator)
}
