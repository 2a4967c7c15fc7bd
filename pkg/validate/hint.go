package validate

import (
	"fmt"
	"strings"
)

// HelpHint renders the "use --help" hint described in §4.G step 3,
// derived from the resolved positional path (e.g. ["cli", "greet"]).
func HelpHint(path []string) string {
	return fmt.Sprintf("Use %q for usage details.", strings.Join(path, " ")+" --help")
}
