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

// Package gh checks whether a repository is reachable before any analysis
// spends provider time on it. The check is advisory: only a definitive 404
// blocks a run, because the provider's own failure is the real authority.
package gh

import (
	"context"
	"net/http"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/rs/zerolog"
)

// Access classifies the probe outcome.
type Access int

const (
	// AccessPublic means the repository answered and is reachable.
	AccessPublic Access = iota
	// AccessNotFound means GitHub definitively reported no such
	// repository. Without a token this usually means it is private.
	AccessNotFound
	// AccessUnknown means the probe itself failed (network, rate limit).
	AccessUnknown
)

// Result carries the probe outcome plus a hint when there is a concrete
// next step for the user.
type Result struct {
	Access Access
	Hint   string
}

// Prober asks the GitHub API whether a repository exists.
type Prober struct {
	client   *github.Client
	hasToken bool
}

// NewProber builds a prober authenticated from GITHUB_TOKEN when set.
// Unauthenticated probing works for public repositories, just with lower
// rate limits.
func NewProber() *Prober {
	token := os.Getenv("GITHUB_TOKEN")
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Prober{client: client, hasToken: token != ""}
}

// NewProberWithClient builds a prober around an existing client. Used by
// tests with a stub API server.
func NewProberWithClient(client *github.Client, hasToken bool) *Prober {
	return &Prober{client: client, hasToken: hasToken}
}

// Probe checks r against the GitHub API. Probe failures never return an
// error; they come back as AccessUnknown so the caller can proceed with a
// warning.
func (p *Prober) Probe(ctx context.Context, r ref.Reference) Result {
	logger := zerolog.Ctx(ctx)

	_, resp, err := p.client.Repositories.Get(ctx, r.Owner, r.Name)
	if err == nil {
		logger.Debug().Str("repo", r.Slug()).Msg("repository is reachable")
		return Result{Access: AccessPublic}
	}

	if resp != nil && resp.StatusCode == http.StatusNotFound {
		hint := "the repository does not exist or is private"
		if !p.hasToken {
			hint += "; set GITHUB_TOKEN if it is private"
		}
		logger.Debug().Str("repo", r.Slug()).Msg("repository not found")
		return Result{Access: AccessNotFound, Hint: hint}
	}

	logger.Warn().
		Str("repo", r.Slug()).
		Err(err).
		Msg("accessibility check failed, proceeding anyway")
	return Result{Access: AccessUnknown, Hint: "could not verify repository accessibility"}
}
