package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"
)

// ExitFunc is swapped out in tests.
var ExitFunc = os.Exit

// Shutdown stops the process. Relay outputs are left as they are; the
// persisted record restores them on the next boot.
func Shutdown(code int) {
	log.Info().Int("code", code).Msg("Relay controller stopping")
	ExitFunc(code)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(1)
}
