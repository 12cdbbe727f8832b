package command

import (
	"bytes"
	"strings"

	"github.com/MixinNetwork/udpfs/config"
)

type Name uint8

const (
	List Name = iota + 1
	Get
	Put
	nameCount
)

var names = [nameCount]string{
	List: "list",
	Get:  "get",
	Put:  "put",
}

var delimiter = []byte(config.Delimiter)

func (n Name) String() string {
	if n == 0 || n >= nameCount {
		return "unknown"
	}
	return names[n]
}

func ParseName(s string) (Name, bool) {
	for n := List; n < nameCount; n++ {
		if names[n] == s {
			return n, true
		}
	}
	return 0, false
}

// ParseInput splits a user line into the command name and its argument text.
func ParseInput(line string) (string, string) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	if len(fields) < 2 {
		return fields[0], ""
	}
	return fields[0], strings.TrimSpace(fields[1])
}

func JoinContent(n Name, payload []byte) []byte {
	content := make([]byte, 0, len(n.String())+len(delimiter)+len(payload))
	content = append(content, n.String()...)
	content = append(content, delimiter...)
	return append(content, payload...)
}

// SplitContent separates the leading command name from its payload.
func SplitContent(content []byte) (string, []byte) {
	i := bytes.Index(content, delimiter)
	if i < 0 {
		return string(content), nil
	}
	return string(content[:i]), content[i+len(delimiter):]
}

func splitFile(payload []byte) (string, []byte, bool) {
	i := bytes.Index(payload, delimiter)
	if i < 0 {
		return "", nil, false
	}
	return string(payload[:i]), payload[i+len(delimiter):], true
}

func joinFile(name string, data []byte) []byte {
	payload := make([]byte, 0, len(name)+len(delimiter)+len(data))
	payload = append(payload, name...)
	payload = append(payload, delimiter...)
	return append(payload, data...)
}
