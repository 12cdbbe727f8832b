package protocol

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/MixinNetwork/udpfs/config"
	"github.com/willf/bitset"
)

const bodyOverhead = config.ChecksumSize + len(config.Delimiter) + len(config.Terminator)

var errorPrefix = []byte(config.ErrorMarker + config.Delimiter)

// Codec splits message contents into datagram sized fragments and joins
// them back. It holds no per message state and is shared by both sides.
type Codec struct {
	capacity int
}

func NewCodec(capacity int) (*Codec, error) {
	if capacity < config.PacketSizeMinimum {
		return nil, fmt.Errorf("codec invalid capacity %d", capacity)
	}
	return &Codec{capacity: capacity}, nil
}

func (c *Codec) Capacity() int {
	return c.capacity
}

func (c *Codec) ChunkSize() int {
	return c.capacity - FragmentHeaderSize
}

// ReasonBudget is the longest error reason that still fits one fragment.
func (c *Codec) ReasonBudget() int {
	return c.ChunkSize() - bodyOverhead - len(errorPrefix)
}

// Checksum is the hex MD5 digest of the content followed by the terminator.
func Checksum(content []byte) []byte {
	h := md5.New()
	h.Write(content)
	h.Write(terminator)
	sum := h.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}

func (c *Codec) Split(content []byte) []*Fragment {
	body := make([]byte, 0, len(content)+bodyOverhead)
	body = append(body, Checksum(content)...)
	body = append(body, delimiter...)
	body = append(body, content...)
	body = append(body, terminator...)

	size, n := c.ChunkSize(), len(body)
	fragments := make([]*Fragment, 0, n/size+1)
	for offset := 0; offset < n; {
		end := offset + size
		if end >= n {
			end = n
		} else if n-end < len(terminator) {
			// the last fragment must carry the whole terminator
			end = n - len(terminator)
		}
		fragments = append(fragments, &Fragment{
			Sequence: uint64(len(fragments)),
			Chunk:    body[offset:end],
		})
		offset = end
	}
	return fragments
}

// Packets is Split with every fragment encoded for the wire.
func (c *Codec) Packets(content []byte) [][]byte {
	fragments := c.Split(content)
	packets := make([][]byte, len(fragments))
	for i, f := range fragments {
		packets[i] = f.Encode()
	}
	return packets
}

func (c *Codec) Join(packets [][]byte) ([]byte, error) {
	if len(packets) == 0 {
		return nil, NewError(KindIntegrity, "no fragments to join")
	}
	chunks := make(map[uint64][]byte, len(packets))
	for _, p := range packets {
		f, err := ParseFragment(p)
		if err != nil {
			return nil, err
		}
		chunks[f.Sequence] = f.Chunk
	}

	count := uint64(len(chunks))
	sequences := make([]uint64, 0, count)
	seen := bitset.New(uint(count))
	for s := range chunks {
		sequences = append(sequences, s)
		if s < count {
			seen.Set(uint(s))
		}
	}
	if seen.Count() != uint(count) {
		for i := uint(0); i < uint(count); i++ {
			if !seen.Test(i) {
				return nil, NewError(KindIntegrity, "fragment %d missing", i)
			}
		}
	}
	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })

	var body []byte
	for _, s := range sequences {
		body = append(body, chunks[s]...)
	}
	if len(body) < bodyOverhead {
		return nil, NewError(KindIntegrity, "message too short %d", len(body))
	}
	if !bytes.Equal(body[config.ChecksumSize:config.ChecksumSize+len(delimiter)], delimiter) ||
		!bytes.HasSuffix(body, terminator) {
		return nil, NewError(KindIntegrity, "malformed message body")
	}
	digest := body[:config.ChecksumSize]
	content := body[config.ChecksumSize+len(delimiter) : len(body)-len(terminator)]
	if !bytes.Equal(Checksum(content), digest) {
		return nil, NewError(KindIntegrity, "checksum failed, packets got corrupted")
	}
	return content, nil
}

// ErrorPacket builds the single datagram carrying an error reason,
// truncated so it never spans a second fragment.
func (c *Codec) ErrorPacket(reason string) []byte {
	reason = truncate(reason, c.ReasonBudget())
	content := append(append([]byte{}, errorPrefix...), reason...)
	fragments := c.Split(content)
	if len(fragments) != 1 {
		panic(fmt.Errorf("error packet fragments %d", len(fragments)))
	}
	return fragments[0].Encode()
}

// ParseError extracts the reason of an error content.
func ParseError(content []byte) (string, bool) {
	if !bytes.HasPrefix(content, []byte(config.ErrorMarker)) {
		return "", false
	}
	reason := bytes.TrimPrefix(content, errorPrefix)
	if len(reason) == len(content) {
		reason = content[len(config.ErrorMarker):]
	}
	return string(reason), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
