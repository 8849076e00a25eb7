package log

import "time"

// Logger provides structured logging capabilities.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Path creates a "path" field.
func Path(p string) Field {
	return Field{Key: "path", Value: p}
}

// Frame creates a "frame" field holding a frame ordinal.
func Frame(n uint32) Field {
	return Field{Key: "frame", Value: uint64(n)}
}

// Frames creates a "frames" field holding a frame count.
func Frames(n int) Field {
	return Field{Key: "frames", Value: n}
}

// Call creates a "call" field holding a call sequence number.
func Call(n uint64) Field {
	return Field{Key: "call", Value: n}
}
