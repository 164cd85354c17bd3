package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
)

func runAssess(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	return runCommand(t, append([]string{"assess"}, args...)...)
}

func runCommand(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	return &out, app.Run(append([]string{"neuropredict"}, args...))
}

func TestAssessCommand(t *testing.T) {
	out, err := runAssess(t,
		"--rigidity", "5", "--bradykinesia", "5", "--tremor", "5",
		"--handwriting", "5", "--posture", "5", "--walking", "5")
	require.NoError(t, err)

	var rep analysis.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, analysis.ModalitySymptoms, rep.Modality)
	assert.Equal(t, 38.0, rep.DiseasePercent)
	assert.Equal(t, 62.0, rep.ConfidencePercent)
	assert.Equal(t, analysis.TierModerate, rep.RiskTier)
	assert.False(t, rep.IsPositive)
	assert.False(t, rep.Simulated)
}

func TestAssessCommand_MissingAnswer(t *testing.T) {
	_, err := runAssess(t,
		"--rigidity", "5", "--bradykinesia", "5", "--tremor", "5",
		"--handwriting", "5", "--posture", "5")
	require.Error(t, err)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
	assert.Contains(t, err.Error(), "walking")
}

func TestAssessCommand_OutOfRange(t *testing.T) {
	_, err := runAssess(t,
		"--rigidity", "11", "--bradykinesia", "5", "--tremor", "5",
		"--handwriting", "5", "--posture", "5", "--walking", "5")

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
}

func TestRangesCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "ranges", "--data-dir", dir)
	require.NoError(t, err)
	var got map[analysis.Modality]analysis.ProbabilityRange
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, analysis.DefaultRanges(), got)

	out, err = runCommand(t, "ranges", "--data-dir", dir, "--modality", "drawing", "--min", "30", "--max", "60")
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, analysis.ProbabilityRange{Min: 30, Max: 60}, got[analysis.ModalityDrawing])
	assert.Equal(t, analysis.DefaultRanges()[analysis.ModalityAudio], got[analysis.ModalityAudio])

	loaded, err := analysis.NewRangeStore(dir).Load(analysis.ModalityDrawing)
	require.NoError(t, err)
	assert.Equal(t, analysis.ProbabilityRange{Min: 30, Max: 60}, loaded, "the service picks up the override")
}

func TestRangesCommand_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "inverted range", args: []string{"--modality", "audio", "--min", "80", "--max", "20"}},
		{name: "questionnaire has no range", args: []string{"--modality", "symptoms", "--min", "1", "--max", "2"}},
		{name: "missing bound", args: []string{"--modality", "audio", "--min", "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := runCommand(t, append([]string{"ranges", "--data-dir", dir}, tt.args...)...)

			var exit cli.ExitCoder
			require.ErrorAs(t, err, &exit)
			assert.Equal(t, 2, exit.ExitCode())

			loaded, err := analysis.NewRangeStore(dir).LoadAll()
			require.NoError(t, err)
			assert.Equal(t, analysis.DefaultRanges(), loaded, "nothing was written")
		})
	}
}
