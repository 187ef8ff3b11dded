package hal

import "errors"

// Failure sentinels returned by BlockDevice operations. Callers compare them
// with errors.Is and handle them where they happen.
var (
	ErrNotReadable = errors.New("hal: device is not readable")
	ErrNotWritable = errors.New("hal: device is not writable")
	ErrNoBuffer    = errors.New("hal: no buffer")
	ErrOutOfRange  = errors.New("hal: lba out of range")
	ErrIO          = errors.New("hal: device i/o failure")
)
