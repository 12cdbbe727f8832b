package config

import "time"

const (
	Debug        = true
	BuildVersion = "v0.3.1-BUILD_VERSION"

	PacketSize   = 512
	SequenceSize = 8
	ChecksumSize = 32
	Delimiter    = " /SEP/ "
	Terminator   = " /EOF/ \r\n/"
	ErrorMarker  = "ProtocolError"

	TimeoutMax = 10 * time.Second
	MaxClients = 2
	ServerPort = 4000

	// one fragment must hold a whole error packet with a short reason
	PacketSizeMinimum = SequenceSize + ChecksumSize + len(Delimiter)*3 + len(ErrorMarker) + len(Terminator) + 32
)
