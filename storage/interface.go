package storage

type Entry struct {
	Name string `msgpack:"n"`
	Size int64  `msgpack:"s"`
}

// Store is the file surface the commands operate on.
type Store interface {
	List() ([]*Entry, error)
	Read(name string) ([]byte, error)
	Write(name string, data []byte) (int, error)
}
