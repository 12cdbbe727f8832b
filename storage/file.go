package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/udpfs/logger"
	"github.com/VictoriaMetrics/fastcache"
)

const cacheHeaderSize = 16

var ErrInvalidName = errors.New("invalid file name")

type FileStore struct {
	root  string
	cache *fastcache.Cache
}

// NewFileStore serves the regular files directly under root, cacheSize is
// the read cache size in MB and 0 disables it.
func NewFileStore(root string, cacheSize int) (*FileStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", root)
	}
	store := &FileStore{root: root}
	if cacheSize > 0 {
		store.cache = fastcache.New(cacheSize * 1024 * 1024)
	}
	return store, nil
}

func ValidName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}

func (s *FileStore) List() ([]*Entry, error) {
	items, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, &Entry{Name: item.Name(), Size: info.Size()})
	}
	return entries, nil
}

func (s *FileStore) Read(name string) ([]byte, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("storage read %s not a regular file", name)
	}
	stamp := cacheStamp(info)
	if data, found := s.cacheGet(name, stamp); found {
		logger.Debugf("storage cache hit %s\n", name)
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s.cacheSet(name, stamp, data)
	return data, nil
}

func (s *FileStore) Write(name string, data []byte) (int, error) {
	if err := ValidName(name); err != nil {
		return 0, err
	}
	path := filepath.Join(s.root, name)
	err := os.WriteFile(path, data, 0644)
	if err != nil {
		return 0, err
	}
	if info, err := os.Stat(path); err == nil {
		s.cacheSet(name, cacheStamp(info), data)
	}
	return len(data), nil
}

func cacheStamp(info os.FileInfo) []byte {
	stamp := make([]byte, cacheHeaderSize)
	binary.BigEndian.PutUint64(stamp, uint64(info.Size()))
	binary.BigEndian.PutUint64(stamp[8:], uint64(info.ModTime().UnixNano()))
	return stamp
}

func (s *FileStore) cacheGet(name string, stamp []byte) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	val := s.cache.GetBig(nil, []byte(name))
	if len(val) < cacheHeaderSize || string(val[:cacheHeaderSize]) != string(stamp) {
		return nil, false
	}
	return val[cacheHeaderSize:], true
}

func (s *FileStore) cacheSet(name string, stamp, data []byte) {
	if s.cache == nil {
		return
	}
	s.cache.SetBig([]byte(name), append(append([]byte{}, stamp...), data...))
}
