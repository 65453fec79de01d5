package cli

import (
	"fmt"
	"io"

	"github.com/henriquecf/i18n-parser/internal/locale"

	"github.com/rs/zerolog/log"
)

// runVerify handles the `verify` command.
func runVerify(out io.Writer, path string) error {
	n, tag, err := locale.Load(path)
	if err != nil {
		return err
	}

	log.Info().Str("path", path).Str("locale", tag.String()).Int("messages", n).Msg("Locale document loaded")
	_, err = fmt.Fprintf(out, "%s: %d messages (%s)\n", path, n, tag)
	return err
}
