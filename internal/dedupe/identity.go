package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/models"
)

// hashFields hashes a sequence of fields under a length-prefixed encoding
// ("<len>:<bytes>" per field). Because every field is framed by its own
// length, records whose fields differ only in where a separator falls can
// never produce the same digest.
func hashFields(fields ...string) string {
	hasher := sha256.New()
	for _, field := range fields {
		fmt.Fprintf(hasher, "%d:", len(field))
		hasher.Write([]byte(field))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Identity returns the stable state key of an event: the same logical
// disruption yields the same key on every run, and any change to a stable
// field yields a different one. Used by the state store to track first-seen
// times across runs.
func Identity(e *models.Event) string {
	return hashFields(
		e.Provider,
		e.Category,
		e.Title,
		joinSorted(e.Lines),
		joinSorted(e.Stations),
		formatTime(e.StartsAt),
	)
}

// DedupeKey returns the within-run content fingerprint used to collapse
// duplicate records fetched through different paths. Unlike Identity it is
// provider-agnostic, so the same disruption reported twice inside one run is
// emitted once.
func DedupeKey(e *models.Event) string {
	var end string
	if e.EndsAt != nil {
		end = formatTime(*e.EndsAt)
	}
	return hashFields(
		e.Category,
		e.Title,
		e.Description,
		joinSorted(e.Stations),
		formatTime(e.StartsAt),
		end,
	)
}

// joinSorted produces an order-independent rendering of a string set. The
// members are themselves length-framed so member boundaries cannot shift.
func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)

	var b strings.Builder
	for _, v := range sorted {
		fmt.Fprintf(&b, "%d:%s", len(v), v)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
