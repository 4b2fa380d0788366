package profile

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/r-lib/rig/internal/rigerr"
)

// Block identifies which managed region of the site profile a
// RewriteSiteProfile call targets; the file can carry both, each
// delimited by its own sentinel pair.
type Block int

const (
	RLibsUserBlock Block = iota
	RepositoriesBlock
)

func (b Block) markers() (start, end string) {
	switch b {
	case RepositoriesBlock:
		return "## rig repositories start", "## rig repositories end"
	default:
		return "## rig R_LIBS_USER start", "## rig R_LIBS_USER end"
	}
}

// RewriteSiteProfile removes the managed region identified by kind
// (delimited by rig's own sentinel comments) from the site profile
// script at path, if present, and appends block as a new managed
// region at the end of the file. Exactly one marker present is a corrupt-
// profile condition and is refused with a ConfigInvariant error rather
// than guessed at.
func RewriteSiteProfile(path string, kind Block, block []byte) error {
	startMarker, endMarker := kind.markers()
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			existing = nil
		} else {
			return rigerr.Wrap(rigerr.CacheIO, "reading site profile", err)
		}
	}

	lines := splitLines(existing)

	startIdx, endIdx := -1, -1
	for i, line := range lines {
		if strings.TrimSpace(line) == startMarker {
			startIdx = i
		}
		if strings.TrimSpace(line) == endMarker {
			endIdx = i
		}
	}

	switch {
	case startIdx == -1 && endIdx == -1:
		var out bytes.Buffer
		out.Write(existing)
		if len(existing) > 0 && existing[len(existing)-1] != '\n' {
			out.WriteByte('\n')
		}
		writeManagedBlock(&out, startMarker, endMarker, block)
		return writeAtomic(path, out.Bytes())

	case startIdx >= 0 && endIdx >= 0:
		if endIdx < startIdx {
			return rigerr.New(rigerr.ConfigInvariant, "site profile has repositories/R_LIBS_USER markers out of order")
		}
		var out bytes.Buffer
		for _, l := range lines[:startIdx] {
			out.WriteString(l)
			out.WriteByte('\n')
		}
		for _, l := range lines[endIdx+1:] {
			out.WriteString(l)
			out.WriteByte('\n')
		}
		writeManagedBlock(&out, startMarker, endMarker, block)
		return writeAtomic(path, out.Bytes())

	default:
		return rigerr.New(rigerr.ConfigInvariant, "site profile has only one of the rig sentinel markers, refusing to guess at the intended block")
	}
}

func writeManagedBlock(out *bytes.Buffer, startMarker, endMarker string, block []byte) {
	out.WriteString(startMarker)
	out.WriteByte('\n')
	out.Write(block)
	if len(block) > 0 && block[len(block)-1] != '\n' {
		out.WriteByte('\n')
	}
	out.WriteString(endMarker)
	out.WriteByte('\n')
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
