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

// Package report turns completed pipeline output into the final analysis
// document and persists it.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hmoritama/repolens/pkg/pipeline"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/hmoritama/repolens/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// SectionNames are the fixed document sections, one per pipeline stage, in
// document order.
var SectionNames = [pipeline.StageCount]string{
	"Overview",
	"Architecture",
	"Verified Findings",
	"Insights",
	"Integrated Analysis",
}

// AnalysisResult is the assembled outcome of one full pipeline run. It
// only exists when every stage succeeded.
type AnalysisResult struct {
	Reference ref.Reference
	Sections  map[string]string
}

// Assemble maps stage outputs onto the fixed section set. Every stage must
// be present; a gap means the pipeline contract was violated upstream.
func Assemble(r ref.Reference, outputs pipeline.StageContext) (*AnalysisResult, error) {
	sections := make(map[string]string, pipeline.StageCount)
	for stage := 1; stage <= pipeline.StageCount; stage++ {
		out, ok := outputs[stage]
		if !ok || strings.TrimSpace(out) == "" {
			return nil, errors.Errorf("stage %d (%s) produced no output", stage, pipeline.StageName(stage))
		}
		sections[SectionNames[stage-1]] = out
	}
	return &AnalysisResult{Reference: r, Sections: sections}, nil
}

// WriteDocument renders the result as a Markdown document named after the
// repository under dir, creating dir as needed. The write goes through a
// temp file and rename so an interrupt never leaves a partial document.
// Returns the path written.
func WriteDocument(result *AnalysisResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Errorf("creating output directory: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s/%s\n\n", result.Reference.Owner, result.Reference.Name)
	fmt.Fprintf(&sb, "Source: %s\n\n", result.Reference.CanonicalURL)
	fmt.Fprintf(&sb, "Analyzed: %s\n", time.Now().Format("2006-01-02"))
	for _, name := range SectionNames {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", name, strings.TrimSpace(result.Sections[name]))
	}

	path := filepath.Join(dir, text.SanitizeFilename(result.Reference.Name)+".md")
	if err := writeAtomic(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("committing file: %w", err)
	}
	return nil
}
