package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// StateDocPath returns the task document path for a repository, derived
// deterministically from the cleaned repo path so that each configured
// repository gets its own document under stateDir. The basename of the repo
// is kept in the filename for readability; the hash disambiguates repos that
// share a basename.
func StateDocPath(stateDir, repoPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(repoPath))
	sum := sha256.Sum256([]byte(cleaned))
	short := hex.EncodeToString(sum[:])[:12]

	base := filepath.Base(cleaned)
	base = sanitizeBase(base)
	if base == "" || base == "." || base == "/" {
		base = "repo"
	}
	return filepath.Join(stateDir, "tasks-"+base+"-"+short+".json")
}

// EventLogPath returns the JSONL event log path for a repository, alongside
// its task document.
func EventLogPath(stateDir, repoPath string) string {
	doc := StateDocPath(stateDir, repoPath)
	return strings.TrimSuffix(doc, ".json") + ".events.jsonl"
}

// sanitizeBase strips characters that are awkward in filenames.
func sanitizeBase(base string) string {
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}
