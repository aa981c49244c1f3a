package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/internal/config"
	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/export"
	"github.com/sells-group/placement-cli/internal/workflow"
)

func withOfflineConfig(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "PLACEMENT_OPENAI_KEY", "PLACEMENT_ANTHROPIC_KEY"} {
		t.Setenv(k, "")
	}
	c, err := config.Load()
	require.NoError(t, err)

	prevCfg, prevOffline := cfg, offline
	cfg, offline = c, true
	t.Cleanup(func() { cfg, offline = prevCfg, prevOffline })
}

func TestInitEnv_OfflineRun(t *testing.T) {
	withOfflineConfig(t)
	ctx := context.Background()

	env, err := initEnv(ctx, "run")
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Transcriber)
	require.NotNil(t, env.Extractor)
	require.NotNil(t, env.Ranker)
	assert.NotNil(t, env.Store)
	_, isNoop := env.Explainer.(explain.Noop)
	assert.False(t, isNoop)

	ctl := env.newController()
	require.NoError(t, ctl.Upload("call.mp3", []byte("audio")))
	require.NoError(t, ctl.Complete(ctx))

	v := ctl.Snapshot()
	assert.Equal(t, workflow.StepResults, v.Step)
	require.NotNil(t, v.Presentation)
	assert.Positive(t, v.Presentation.Matches)

	dir := t.TempDir()
	files, err := export.WriteFiles(dir, v.Preferences.PatientName, v.Results)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		_, err := os.Stat(f)
		assert.NoError(t, err, filepath.Base(f))
	}
}

func TestInitEnv_TranscribeOnly(t *testing.T) {
	withOfflineConfig(t)

	env, err := initEnv(context.Background(), "transcribe")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Transcriber)
	assert.Nil(t, env.Extractor)
	assert.Nil(t, env.Ranker)
	assert.Nil(t, env.Store)
}

func TestInitEnv_MissingCredentials(t *testing.T) {
	withOfflineConfig(t)
	offline = false

	_, err := initEnv(context.Background(), "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")
}

func TestInitEnv_UnknownMode(t *testing.T) {
	withOfflineConfig(t)

	_, err := initEnv(context.Background(), "bogus")
	assert.Error(t, err)
}
