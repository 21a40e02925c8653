package identity

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	invitedLineRe    = regexp.MustCompile(`(?i)^\s*invited\s*:\s*`)
	angleAddressRe   = regexp.MustCompile(`<([^>]+@[^>]+)>`)
	bareAddressRe    = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)
	headerAngleRe    = regexp.MustCompile(`<([^>]+)>`)
	localPartSplitRe = regexp.MustCompile(`[._0-9]+`)
)

// InvitedAddress scans the "Invited:" line of meeting notes and returns the
// address of the first participant who is not the host.
func InvitedAddress(notes, host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	for _, line := range strings.Split(notes, "\n") {
		loc := invitedLineRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		for _, entry := range strings.Split(line[loc[1]:], ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" || (host != "" && strings.Contains(strings.ToLower(entry), host)) {
				continue
			}
			if m := angleAddressRe.FindStringSubmatch(entry); m != nil {
				return strings.TrimSpace(m[1])
			}
			if m := bareAddressRe.FindString(entry); m != "" {
				return m
			}
		}
	}
	return ""
}

// ParseAddressHeader picks a non-system address out of a From/To header that
// may list several comma-separated entries. Entries mentioning hint win.
func ParseAddressHeader(header, hint string, systemTokens []string) string {
	entries := splitAddressList(header)

	var preferred []string
	if hint != "" {
		lowerHint := strings.ToLower(hint)
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e), lowerHint) {
				preferred = append(preferred, e)
			}
		}
	}

	for _, pass := range [][]string{preferred, entries} {
		for _, e := range pass {
			if addr := entryAddress(e); addr != "" && !isSystemAddress(addr, systemTokens) {
				return addr
			}
		}
	}
	return ""
}

// splitAddressList splits a header on commas that sit outside quoted display
// names and angle brackets, so "Doe, Jane" <jane@x.com> stays one entry.
func splitAddressList(header string) []string {
	var (
		entries []string
		quoted  bool
		angle   bool
		start   int
	)
	add := func(e string) {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	for i, r := range header {
		switch {
		case r == '"' && !angle:
			quoted = !quoted
		case r == '<' && !quoted:
			angle = true
		case r == '>' && !quoted:
			angle = false
		case r == ',' && !quoted && !angle:
			add(header[start:i])
			start = i + 1
		}
	}
	add(header[start:])
	return entries
}

func entryAddress(entry string) string {
	if strings.Contains(entry, "<") && strings.Contains(entry, ">") {
		if m := headerAngleRe.FindStringSubmatch(entry); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	if strings.Contains(entry, "@") {
		return entry
	}
	return ""
}

func isSystemAddress(addr string, tokens []string) bool {
	addr = strings.ToLower(addr)
	for _, t := range tokens {
		if t != "" && strings.Contains(addr, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// DisplayNameFromSender returns the display part of `"Jane Doe" <jane@x.com>`,
// or "" when the header carries a bare address.
func DisplayNameFromSender(sender string) string {
	name, _, ok := strings.Cut(sender, "<")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(name), `"'`)
}

// NameFromAddress derives "John Smith" from "john.smith42@example.com".
func NameFromAddress(address string) string {
	local, _, ok := strings.Cut(address, "@")
	if !ok {
		return ""
	}
	var parts []string
	for _, p := range localPartSplitRe.Split(local, -1) {
		if len([]rune(p)) > 1 {
			parts = append(parts, capitalize(p))
		}
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
