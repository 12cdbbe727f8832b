package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

type Custom struct {
	Protocol struct {
		PacketSize int `toml:"packet-size"`
		Timeout    int `toml:"timeout"`
	} `toml:"protocol"`
	Server struct {
		Port       int    `toml:"port"`
		MaxClients int    `toml:"max-clients"`
		Directory  string `toml:"directory"`
		SessionTTL int    `toml:"session-ttl"`
		CacheSize  int    `toml:"cache-size"`
	} `toml:"server"`
	Client struct {
		Server    string `toml:"server"`
		Directory string `toml:"directory"`
	} `toml:"client"`
	RPC struct {
		Port int `toml:"port"`
	} `toml:"rpc"`
	Log struct {
		Level   int    `toml:"level"`
		Filter  string `toml:"filter"`
		Limiter int    `toml:"limiter"`
		File    string `toml:"file"`
		MaxSize int    `toml:"max-size"`
	} `toml:"log"`
}

// Initialize reads the TOML file, an empty path yields the defaults.
func Initialize(file string) (*Custom, error) {
	var config Custom
	if file != "" {
		f, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		err = toml.Unmarshal(f, &config)
		if err != nil {
			return nil, err
		}
	}
	config.setDefaults()
	return &config, config.Validate()
}

func (c *Custom) setDefaults() {
	if c.Protocol.PacketSize == 0 {
		c.Protocol.PacketSize = PacketSize
	}
	if c.Protocol.Timeout == 0 {
		c.Protocol.Timeout = int(TimeoutMax / time.Second)
	}
	if c.Server.Port == 0 {
		c.Server.Port = ServerPort
	}
	if c.Server.MaxClients == 0 {
		c.Server.MaxClients = MaxClients
	}
	if c.Server.Directory == "" {
		c.Server.Directory = "."
	}
	if c.Server.CacheSize == 0 {
		c.Server.CacheSize = 32
	}
	if c.Client.Directory == "" {
		c.Client.Directory = "."
	}
	if c.Log.Level == 0 {
		c.Log.Level = 2
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 64
	}
}

func (c *Custom) Validate() error {
	if c.Protocol.PacketSize < PacketSizeMinimum {
		return fmt.Errorf("invalid packet size %d, minimum %d", c.Protocol.PacketSize, PacketSizeMinimum)
	}
	if c.Protocol.Timeout < 0 {
		return fmt.Errorf("invalid timeout %d", c.Protocol.Timeout)
	}
	if c.Server.MaxClients < 1 {
		return fmt.Errorf("invalid max clients %d", c.Server.MaxClients)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("invalid session ttl %d", c.Server.SessionTTL)
	}
	return nil
}

func (c *Custom) Timeout() time.Duration {
	return time.Duration(c.Protocol.Timeout) * time.Second
}

func (c *Custom) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTL) * time.Second
}

func (c *Custom) Listener() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
