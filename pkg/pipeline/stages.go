package pipeline

import (
	"fmt"
	"strings"

	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/hmoritama/repolens/pkg/text"
)

// StageCount is the fixed number of analysis stages.
const StageCount = 5

// Stage numbers and display names, in execution order.
var stageNames = [StageCount]string{
	"Basic Info",
	"Deep Analysis",
	"Consistency Check",
	"Insight Generation",
	"Integration",
}

// StageName returns the display name of stage n (1-based), or an empty
// string for an out-of-range number.
func StageName(n int) string {
	if n < 1 || n > StageCount {
		return ""
	}
	return stageNames[n-1]
}

// stageTasks holds the per-stage instruction block. Each stage sees the
// repository reference plus every prior stage's output as context.
var stageTasks = [StageCount]string{
	// 1: Basic Info
	`Collect the basic facts about this repository: its stated purpose, primary
language and frameworks, entry points, build system, and license. Report only
what you can observe; mark anything uncertain as uncertain.`,

	// 2: Deep Analysis
	`Inspect the repository's structure and architecture using your own ability
to read its contents: major packages or modules, how they depend on each
other, the core data structures and algorithms, and any notable engineering
decisions. Use the basic facts above as a framing hint, not as ground truth.`,

	// 3: Consistency Check
	`Cross-check the claims made in the previous stages against each other.
Flag contradictions, unsupported claims, and gaps. Do not introduce new facts
about the repository; your job here is reconciliation only.`,

	// 4: Insight Generation
	`From the reconciled analysis above, derive the business value and the
technical differentiation of this project: what problems it solves, who would
use it, and what sets its approach apart. Stay grounded in the earlier stages.`,

	// 5: Integration
	`Merge everything above into one integrated analysis document with these
sections: Overview, Architecture, Verified Findings, Insights, Summary. Write
each section as self-contained prose that does not reference the stages.`,
}

// minContextBytes is the floor below which a prior output is never cut.
// The truncation marker itself needs room, and a fragment smaller than this
// carries no context worth keeping.
const minContextBytes = 256

// buildPrompt assembles the prompt for stage n: the task, the repository
// reference, and every prior stage's output. When the combined prompt would
// exceed maxBytes, the earliest outputs lose their head first, each cut
// marked explicitly.
func buildPrompt(n int, r ref.Reference, prior StageContext, maxBytes int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Repository analysis, stage %d of %d: %s\n\n", n, StageCount, StageName(n))
	fmt.Fprintf(&sb, "Repository: %s\n\n", r.CanonicalURL)
	sb.WriteString("## Task\n\n")
	sb.WriteString(strings.TrimSpace(stageTasks[n-1]))
	sb.WriteString("\n")

	if n == 1 {
		return sb.String()
	}

	base := sb.Len()
	outputs := make([]string, 0, n-1)
	headerLen := 0
	for k := 1; k < n; k++ {
		outputs = append(outputs, prior[k])
		headerLen += len(contextHeader(k))
	}

	// Shrink the earliest outputs until everything fits. Later stages are
	// closer to the current task, so they keep their full text longest.
	budget := maxBytes - base - headerLen
	total := 0
	for _, out := range outputs {
		total += len(out)
	}
	if maxBytes > 0 && total > budget {
		for i := 0; i < len(outputs) && total > budget; i++ {
			excess := total - budget
			keep := len(outputs[i]) - excess
			if keep < minContextBytes {
				keep = minContextBytes
			}
			truncated := text.TruncateHead(outputs[i], keep)
			total += len(truncated) - len(outputs[i])
			outputs[i] = truncated
		}
	}

	for i, out := range outputs {
		sb.WriteString(contextHeader(i + 1))
		sb.WriteString(out)
		sb.WriteString("\n")
	}
	return sb.String()
}

func contextHeader(stage int) string {
	return fmt.Sprintf("\n## Output of stage %d (%s)\n\n", stage, StageName(stage))
}
