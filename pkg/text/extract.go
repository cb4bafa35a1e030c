package text

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Interactive AI tools wrap their useful output in chatter: code fences,
// preambles, trailing commentary. ExtractPayload peels out the meaningful
// payload so downstream stages embed clean context instead of fence noise.
//
// Precedence, highest first:
//  1. a fenced ```json block containing a valid JSON object
//  2. a markdown document with YAML front matter (--- ... ---)
//  3. a fenced ```markdown block
//  4. a bare JSON object spanning the first '{' to the last '}'
//  5. the raw output, whitespace-trimmed
var (
	jsonFenceRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	frontMatterRe = regexp.MustCompile(`(?s)(?m)^---\s*\n.*?\n---\s*\n.*`)
	mdFenceRe     = regexp.MustCompile("(?s)```markdown\\s*(.*?)\\s*```")
)

// ExtractPayload returns the meaningful payload of raw provider output.
func ExtractPayload(raw string) string {
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		if json.Valid([]byte(m[1])) {
			return m[1]
		}
	}

	if m := frontMatterRe.FindString(raw); m != "" {
		return m
	}

	if m := mdFenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	return strings.TrimSpace(raw)
}
