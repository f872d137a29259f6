package emulator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newPushID generates a document key that sorts lexicographically in
// creation order: a zero-padded millisecond timestamp followed by a random
// suffix for uniqueness within the same millisecond. Clients rely on key
// order to reconstruct insertion order, so the prefix must stay sortable.
func newPushID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%013d-%s", now.UnixMilli(), suffix)
}
