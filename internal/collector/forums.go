package collector

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// forumToken matches a bare, already-lowercased forum name.
var forumToken = regexp.MustCompile(`^[a-z0-9_]+$`)

// ResolveForums parses the forum list configuration. A line is enabled
// iff, after trimming leading whitespace, it matches the exact
// "- <token>" pattern; a trailing "# ..." comment on an enabled line
// is ignored. A line whose first non-whitespace character is '#' is
// disabled regardless of content. Any other line is ignored rather
// than partially recovered. Names are lowercased and deduplicated
// case-insensitively, preserving first-seen order.
func ResolveForums(r io.Reader) ([]ForumID, error) {
	var forums []ForumID
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, ok := parseForumLine(scanner.Text())
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		forums = append(forums, ForumID(name))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read forum list: %w", err)
	}

	if len(forums) == 0 {
		return nil, ErrNoForumsConfigured
	}
	return forums, nil
}

func parseForumLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	rest, ok := strings.CutPrefix(line, "- ")
	if !ok {
		return "", false
	}
	if i := strings.Index(rest, "#"); i >= 0 {
		rest = rest[:i]
	}
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return "", false
	}
	name := strings.ToLower(fields[0])
	if !forumToken.MatchString(name) {
		return "", false
	}
	return name, true
}
