package main

import "github.com/segmentio/ksuid"

// GenerateSessionID returns a fresh, time-ordered, globally unique id.
func GenerateSessionID() string {
	return ksuid.New().String()
}
