package rendercache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	c.Set("/data/people.csv", 1, []byte("name,age\nAda,36\n"))

	got, ok := c.Get("/data/people.csv", 1)
	require.True(t, ok)
	require.Equal(t, "name,age\nAda,36\n", string(got))
}

func TestGetMissesOnGenerationChange(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	c.Set("/data/people.csv", 1, []byte("stale"))

	_, ok := c.Get("/data/people.csv", 2)
	require.False(t, ok)
}

func TestInvalidateDropsAllGenerationsForPath(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	c.Set("/sql/results/q1.csv", 1, []byte("a"))
	c.Set("/sql/results/q1.csv", 2, []byte("b"))
	c.Set("/sql/results/q2.csv", 1, []byte("c"))

	c.Invalidate("/sql/results/q1.csv")

	_, ok := c.Get("/sql/results/q1.csv", 1)
	require.False(t, ok)
	_, ok = c.Get("/sql/results/q1.csv", 2)
	require.False(t, ok)
	_, ok = c.Get("/sql/results/q2.csv", 1)
	require.True(t, ok)
}
