package testkit

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()

	MustPanic(t, func() {
		panic("boom")
	})
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()

	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	t.Parallel()

	haystack := "warned user_id=42"
	MustContain(t, haystack, "user_id=42")
	MustNotContain(t, haystack, "muted")
}

func TestEventually(t *testing.T) {
	t.Parallel()

	var done atomic.Bool
	time.AfterFunc(20*time.Millisecond, func() { done.Store(true) })
	Eventually(t, time.Second, done.Load)
}
