package gate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// SubjectRules decide which notes subjects belong to an artist production call.
// They are data, not code: deployments override them with a YAML file.
type SubjectRules struct {
	// RequiredParticipant must appear in the meeting title.
	RequiredParticipant string `yaml:"required_participant"`
	// ExcludedParticipants are regular expressions; a title matching any of
	// them is a different kind of meeting and is skipped.
	ExcludedParticipants []string `yaml:"excluded_participants"`
}

func DefaultSubjectRules() SubjectRules {
	return SubjectRules{
		RequiredParticipant: "Marian",
		ExcludedParticipants: []string{
			"Darko", "Course prod", "Beers and Brags", "Noras", `\bJP\b`,
			"Renco", "David", "Stefan", "Maisie",
		},
	}
}

// LoadSubjectRules reads rules from path, or returns the defaults when path is empty.
// Fields missing from the file keep their default values.
func LoadSubjectRules(path string) (SubjectRules, error) {
	rules := DefaultSubjectRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SubjectRules{}, fmt.Errorf("reading subject rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return SubjectRules{}, fmt.Errorf("parsing subject rules %s: %w", path, err)
	}
	return rules, nil
}

var (
	titleRe     = regexp.MustCompile(`Notes:\s*[“"]([^“”"]+)[”"]`)
	separatorRe = regexp.MustCompile(`\s*(?:/|<>|&|\||\+|,|\s[xX-]\s|\s(?:and|with)\s)\s*`)
)

type Matcher struct {
	required string
	excluded []*regexp.Regexp
}

func NewMatcher(rules SubjectRules) (*Matcher, error) {
	if strings.TrimSpace(rules.RequiredParticipant) == "" {
		return nil, fmt.Errorf("subject rules: required_participant is empty")
	}
	m := &Matcher{required: strings.TrimSpace(rules.RequiredParticipant)}
	for _, expr := range rules.ExcludedParticipants {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("subject rules: excluded participant %q: %w", expr, err)
		}
		m.excluded = append(m.excluded, re)
	}
	return m, nil
}

// Match reports whether subject is a production call and returns the artist
// name hint taken from the quoted meeting title ("Jane / Marian" -> "Jane").
func (m *Matcher) Match(subject string) (string, bool) {
	sm := titleRe.FindStringSubmatch(subject)
	if sm == nil {
		return "", false
	}
	title := sm[1]
	if !strings.Contains(title, m.required) {
		return "", false
	}
	for _, re := range m.excluded {
		if re.MatchString(title) {
			return "", false
		}
	}
	return m.hint(title), true
}

func (m *Matcher) hint(title string) string {
	for _, part := range separatorRe.Split(title, -1) {
		part = strings.TrimSpace(part)
		if part != "" && !strings.Contains(part, m.required) {
			return part
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(title, m.required, ""))
}
