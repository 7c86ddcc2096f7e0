package manifest

import "strings"

// Entry is one well-formed manifest line.
type Entry struct {
	Link string
	Name string
}

// Candidate is an entry matched against one requested suffix.
type Candidate struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
	// Size is the declared remote size in bytes, 0 when unknown or not probed.
	Size int64 `json:"size"`
}

// ParseEntry splits a raw manifest line into an Entry. Surrounding
// whitespace, including a trailing "\r", is removed first. ok is false
// unless the line has exactly two tab-separated fields.
func ParseEntry(line string) (Entry, bool) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) != 2 {
		return Entry{}, false
	}
	return Entry{Link: fields[0], Name: fields[1]}, true
}

// Candidates returns one candidate per suffix the link ends with, in
// suffix order. Suffixes must already be normalized.
func (e Entry) Candidates(suffixes []string) []Candidate {
	var out []Candidate
	for _, suffix := range suffixes {
		if strings.HasSuffix(e.Link, suffix) {
			out = append(out, Candidate{Link: e.Link, FileName: e.Name + suffix})
		}
	}
	return out
}
