package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a safe ASCII basename: compatibility
// decomposition, non-ASCII dropped, path separators and whitespace runs
// turned into "_", anything else outside [A-Za-z0-9_.-] removed, and
// leading or trailing dots and underscores trimmed. The result may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)
	var ascii strings.Builder
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			ascii.WriteRune(r)
		}
	}

	s := strings.NewReplacer("/", " ", `\`, " ").Replace(ascii.String())
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// NewFileID returns an upload id: "FILE" followed by 8 upper-case hex digits.
func NewFileID() string {
	return "FILE" + strings.ToUpper(uuid.NewString()[:8])
}

// storedName is the staged file name for an upload.
func storedName(fileID, original string) string {
	safe := SecureFilename(original)
	if safe == "" {
		safe = "file_" + fileID + ".xlsx"
	}
	return fileID + "_" + safe
}
