package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hmoritama/repolens/pkg/pipeline"
	"github.com/hmoritama/repolens/pkg/ref"
	"github.com/hmoritama/repolens/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRef(t *testing.T) ref.Reference {
	t.Helper()
	r, err := ref.Parse("https://github.com/octocat/Hello-World")
	require.NoError(t, err)
	return r
}

func fullOutputs() pipeline.StageContext {
	outputs := make(pipeline.StageContext, pipeline.StageCount)
	for stage := 1; stage <= pipeline.StageCount; stage++ {
		outputs[stage] = pipeline.StageName(stage) + " content"
	}
	return outputs
}

func TestAssemble(t *testing.T) {
	t.Run("complete_run", func(t *testing.T) {
		result, err := report.Assemble(testRef(t), fullOutputs())
		require.NoError(t, err, "complete outputs should assemble")
		require.Len(t, result.Sections, pipeline.StageCount, "one section per stage")
		assert.Equal(t, "Basic Info content", result.Sections["Overview"], "stage 1 maps to Overview")
		assert.Equal(t, "Integration content", result.Sections["Integrated Analysis"], "stage 5 maps to Integrated Analysis")
	})

	t.Run("missing_stage_rejected", func(t *testing.T) {
		outputs := fullOutputs()
		delete(outputs, 3)
		_, err := report.Assemble(testRef(t), outputs)
		require.Error(t, err, "a gap in the outputs should fail assembly")
		assert.Contains(t, err.Error(), "stage 3", "error should name the missing stage")
	})

	t.Run("blank_stage_rejected", func(t *testing.T) {
		outputs := fullOutputs()
		outputs[2] = "   \n"
		_, err := report.Assemble(testRef(t), outputs)
		require.Error(t, err, "whitespace-only output counts as missing")
	})
}

func TestWriteDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "use-cases")
	result, err := report.Assemble(testRef(t), fullOutputs())
	require.NoError(t, err)

	path, err := report.WriteDocument(result, dir)
	require.NoError(t, err, "write should succeed")
	assert.Equal(t, filepath.Join(dir, "Hello-World.md"), path, "filename comes from the repo name")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# octocat/Hello-World", "document should carry the repo heading")
	assert.Contains(t, content, "https://github.com/octocat/Hello-World", "document should carry the canonical URL")
	for _, name := range report.SectionNames {
		assert.Contains(t, content, "## "+name, "document should carry section %q", name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestSessionLog_Record(t *testing.T) {
	dir := t.TempDir()
	log := report.NewSessionLog(dir, "Hello-World")

	path, err := log.Record(pipeline.Exchange{
		Stage:     2,
		Name:      "Deep Analysis",
		Prompt:    "inspect the architecture with key sk-secret1234567890",
		RawOutput: "the architecture is layered",
		Elapsed:   3 * time.Second,
	})
	require.NoError(t, err, "record should succeed")
	assert.True(t, strings.HasSuffix(path, "_Hello-World_stage2_Deep_Analysis.log"),
		"log name should carry repo and stage, got %q", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "stage: 2 (Deep Analysis)")
	assert.Contains(t, content, "the architecture is layered", "raw output should be persisted")
	assert.NotContains(t, content, "sk-secret1234567890", "secrets must never reach the log")
	assert.Contains(t, content, "[REDACTED]")
}
