package dcf

import (
	"fmt"
	"strings"
)

// Built decodes a PACKAGES archive's "Built" field: "R X.Y.Z; platform;
// timestamp; os_type", where platform may be empty.
type Built struct {
	RVersion  string
	Platform  string
	HasPlatform bool
	Timestamp string
	OSType    string
}

// ParseBuilt parses a Built field value. The field must split into
// exactly four semicolon-separated parts; any other count is a hard
// parse error. The second part (platform) may be empty, in which case
// HasPlatform is false.
func ParseBuilt(s string) (Built, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return Built{}, fmt.Errorf("dcf: Built field must have 4 semicolon-separated parts, got %d in %q", len(parts), s)
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	built := Built{
		RVersion:  strings.TrimSpace(strings.TrimPrefix(parts[0], "R")),
		Timestamp: parts[2],
		OSType:    parts[3],
	}
	if parts[1] != "" {
		built.Platform = parts[1]
		built.HasPlatform = true
	}

	return built, nil
}
