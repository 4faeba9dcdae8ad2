package flow

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Status is the error channel a node reports through. Reporting never
// stops the flow; whether a message is forwarded is the node's decision.
type Status interface {
	Error(err error)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Level is the minimum severity LogStatus writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("flow: unknown log level %q", s)
	}
}

// LogStatus writes reports to a log.Logger and counts errors.
type LogStatus struct {
	log    *log.Logger
	level  Level
	errors atomic.Int64
	warns  atomic.Int64
}

func NewLogStatus(l *log.Logger, level Level) *LogStatus {
	return &LogStatus{log: l, level: level}
}

func (s *LogStatus) Error(err error) {
	s.errors.Add(1)
	if s.level <= LevelError {
		s.log.Printf("error: %v", err)
	}
}

func (s *LogStatus) Warnf(format string, args ...any) {
	s.warns.Add(1)
	if s.level <= LevelWarn {
		s.log.Printf("warn: "+format, args...)
	}
}

func (s *LogStatus) Debugf(format string, args ...any) {
	if s.level <= LevelDebug {
		s.log.Printf("debug: "+format, args...)
	}
}

// Infof is not part of Status; the CLI uses it for lifecycle messages.
func (s *LogStatus) Infof(format string, args ...any) {
	if s.level <= LevelInfo {
		s.log.Printf(format, args...)
	}
}

// Errors returns the number of errors reported so far.
func (s *LogStatus) Errors() int64 { return s.errors.Load() }

// Warnings returns the number of warnings reported so far.
func (s *LogStatus) Warnings() int64 { return s.warns.Load() }
