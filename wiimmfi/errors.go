package wiimmfi

import "errors"

// ErrWarmingUp is returned when no snapshot exists yet and a fetch cycle is
// already in flight. Callers should retry shortly.
var ErrWarmingUp = errors.New("wiimmfi: warming up, no snapshot yet")

// ErrNoFallback is returned by a FallbackLoader when no local document exists.
var ErrNoFallback = errors.New("wiimmfi: no fallback document")
