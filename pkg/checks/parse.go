package checks

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`\d+`)

// firstNumber returns the first integer token in s.
func firstNumber(s string) (int, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// lastNumber returns the last integer token in s.
func lastNumber(s string) (int, bool) {
	all := numberRe.FindAllString(s, -1)
	if len(all) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(all[len(all)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// lineContaining returns the first line of output that contains key,
// compared case-insensitively.
func lineContaining(output, key string) (string, bool) {
	key = strings.ToLower(key)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(strings.ToLower(line), key) {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

// valueAfter returns the text following key on the first line holding key.
func valueAfter(output, key string) (string, bool) {
	line, ok := lineContaining(output, key)
	if !ok {
		return "", false
	}
	idx := strings.Index(strings.ToLower(line), strings.ToLower(key))
	return strings.TrimSpace(line[idx+len(key):]), true
}

// numberAfter extracts the last integer on the line holding key.
func numberAfter(output, key string) (int, bool) {
	rest, ok := valueAfter(output, key)
	if !ok {
		return 0, false
	}
	return lastNumber(rest)
}

// field returns the value of a "Key : Value" line as printed by PowerShell
// Format-List and wevtutil, or of a space aligned "Key   Value" line as
// printed by net.exe.
func field(output, key string) (string, bool) {
	rest, ok := valueAfter(output, key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(rest, ":")), true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// firstLine returns the first non-blank line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
