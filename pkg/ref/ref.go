// Copyright 2025 Hiro Moritama
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ref validates and normalizes GitHub repository locators.
//
// Validation is purely syntactic: whether the repository actually exists is
// left to the analysis provider (or the optional pre-flight probe in pkg/gh).
package ref

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// GitHub's own limits: usernames/orgs max 39 chars, repo names max 100.
	maxOwnerLen = 39
	maxNameLen  = 100
)

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// Reference is a validated, canonicalized repository identifier.
// Immutable once produced by Parse; CanonicalURL is always reconstructed,
// never taken verbatim from input.
type Reference struct {
	Owner        string
	Name         string
	CanonicalURL string
}

// Slug returns the "owner/name" form.
func (r Reference) Slug() string {
	return r.Owner + "/" + r.Name
}

func (r Reference) String() string {
	return r.CanonicalURL
}

// InvalidReferenceError reports an input that does not denote a GitHub
// repository. It carries the raw offending input, never partially-parsed data.
type InvalidReferenceError struct {
	Input  string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid repository reference %q: %s", e.Input, e.Reason)
}

// Parse validates input and returns a normalized Reference.
//
// Accepted forms, all yielding the same Reference:
//
//	https://github.com/<owner>/<name>
//	https://github.com/<owner>/<name>/
//	https://github.com/<owner>/<name>.git
//	https://github.com/<owner>/<name>/tree/<ref>
//
// Any other input fails with *InvalidReferenceError.
func Parse(input string) (Reference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "empty input"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "not a valid URL"}
	}
	if u.Scheme != "https" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: fmt.Sprintf("scheme must be https, got %q", u.Scheme)}
	}
	if u.Host != "github.com" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: fmt.Sprintf("host must be github.com, got %q", u.Host)}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "path must contain owner and repository name"}
	}
	if len(segments) > 2 && segments[2] != "tree" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "unexpected path segments after repository name"}
	}

	owner := segments[0]
	name := strings.TrimSuffix(segments[1], ".git")

	if name == "" {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "repository name is empty"}
	}
	if len(owner) > maxOwnerLen {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: fmt.Sprintf("owner exceeds %d characters", maxOwnerLen)}
	}
	if len(name) > maxNameLen {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: fmt.Sprintf("repository name exceeds %d characters", maxNameLen)}
	}
	if !ownerPattern.MatchString(owner) {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "owner contains invalid characters"}
	}
	if !namePattern.MatchString(name) {
		return Reference{}, &InvalidReferenceError{Input: input, Reason: "repository name contains invalid characters"}
	}

	return Reference{
		Owner:        owner,
		Name:         name,
		CanonicalURL: fmt.Sprintf("https://github.com/%s/%s", owner, name),
	}, nil
}
