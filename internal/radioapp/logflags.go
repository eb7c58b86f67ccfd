package radioapp

import playerpkg "github.com/edward-ap/nuwaradio/internal/player"

// SetTraceLogEnabled toggles verbose/file logging for libVLC initialisation.
// Call this before Player.Init.
func SetTraceLogEnabled(b bool) { playerpkg.SetTraceLoggingEnabled(b) }
