package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion(t *testing.T) {
	version := getVersion()

	require.NotEmpty(t, version)
	// "dev" in tests, vX.Y.Z when installed with go install @version
	assert.True(t, version == "dev" || strings.HasPrefix(version, "v"), version)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "wetwire-codebuild "+getVersion()+"\n", out.String())
}
