package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (*viper.Viper, error) {
	t.Helper()
	v := viper.New()
	root := newRootCmd(v)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return v, root.Execute()
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd(viper.New())

	for _, path := range [][]string{{"migrate"}, {"link", "create"}, {"rating", "retry"}} {
		c, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}

func TestLinkCreateValidatesBeforeConnecting(t *testing.T) {
	t.Setenv("EMPLOYER_TOKEN", "")
	t.Setenv("LINK_SECRET", "")

	_, err := run(t, "link", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employer-token")

	_, err = run(t, "link", "create", "--employer-token", "acme", "--link-secret", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link-secret")
}

func TestRatingRetryRequiresSession(t *testing.T) {
	_, err := run(t, "rating", "retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session-id")
}

func TestFlagsFallBackToEnvironment(t *testing.T) {
	t.Setenv("EMPLOYER_TOKEN", "")
	t.Setenv("LINK_TTL", "48h")
	t.Setenv("PUBLIC_BASE_URL", "https://jobs.example")

	v, _ := run(t, "link", "create")
	assert.Equal(t, 48*time.Hour, v.GetDuration("link-ttl"))
	assert.Equal(t, "https://jobs.example", v.GetString("public-base-url"))
}
