// Package logx holds the process logger used by the key set cache and the
// identity provider verifiers. The signing and verification core never logs.
package logx

import (
	"log/slog"
	"sync/atomic"
)

// Logger is the subset of *slog.Logger the packages of this module call.
// Arguments are slog-style alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

var current atomic.Value

func init() {
	current.Store(holder{slog.Default()})
}

// holder keeps atomic.Value on a single concrete type.
type holder struct{ Logger }

// L returns the process logger, slog.Default() unless replaced.
func L() Logger {
	return current.Load().(holder).Logger
}

// SetLogger replaces the process logger. A nil Logger silences logging.
func SetLogger(l Logger) {
	if l == nil {
		l = nop{}
	}
	current.Store(holder{l})
}

// Or returns "l" when it is not nil, the process logger otherwise.
func Or(l Logger) Logger {
	if l != nil {
		return l
	}

	return L()
}
