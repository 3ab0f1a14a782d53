package storage

type storageError string

const (
	ErrNotFound  = storageError("not found")
	ErrDuplicate = storageError("already exists")
)

func (e storageError) Error() string {
	return string(e)
}
