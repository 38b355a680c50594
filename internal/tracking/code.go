// Package tracking manages tracking codes, the append-only event log, and
// the lead-state effects of open, click, and convert events.
package tracking

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/rotisserie/eris"
)

// codeBytes is the entropy of a tracking code. 128 bits keeps codes
// unguessable; they are bearer tokens embedded in outbound email.
const codeBytes = 16

// NewCode returns a new random tracking code as lowercase hex.
func NewCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", eris.Wrap(err, "tracking: generate code")
	}
	return hex.EncodeToString(buf), nil
}
