package fscache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTMLGetSet(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	_, ok := c.Get("https://example.com/a")
	require.False(t, ok)

	require.NoError(t, c.Set("https://example.com/a", "<html>hi</html>"))
	body, ok := c.Get("https://example.com/a")
	require.True(t, ok)
	require.Equal(t, "<html>hi</html>", body)
}

func TestHTMLExpiry(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Millisecond, nil)

	require.NoError(t, c.Set("url", "body"))
	time.Sleep(10 * time.Millisecond)

	_, ok := c.Get("url")
	require.False(t, ok)
}

func TestHTMLInvalidateAndClear(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	require.NoError(t, c.Set("url1", "a"))
	require.NoError(t, c.Set("url2", "b"))

	require.NoError(t, c.Invalidate("url1"))
	_, ok := c.Get("url1")
	require.False(t, ok)

	removed, err := c.Clear()
	require.NoError(t, err)
	require.Equal(t, 1, removed) // only url2 remained
}

type sampleData struct {
	Name  string
	Count int
}

func TestDataJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	in := sampleData{Name: "foo", Count: 3}
	require.NoError(t, c.SetData("id1", in))

	var out sampleData
	require.True(t, c.GetData("id1", &out))
	require.Equal(t, in, out)
}

func TestDataBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	in := map[string][]string{"a": {"x", "y"}}
	require.NoError(t, c.SetDataBinary("id2", in))

	var out map[string][]string
	require.True(t, c.GetData("id2", &out))
	require.Equal(t, in, out)
}

func TestInvalidateDataRemovesBothSlots(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	require.NoError(t, c.SetData("id3", sampleData{Name: "a"}))
	require.NoError(t, c.SetDataBinary("id3", sampleData{Name: "a"}))

	require.NoError(t, c.InvalidateData("id3"))

	var out sampleData
	require.False(t, c.GetData("id3", &out))
}

func TestStatsTracksHitsAndMisses(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, time.Hour, nil)

	require.NoError(t, c.Set("url", "body"))
	_, _ = c.Get("url")
	_, _ = c.Get("missing")

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, 1, stats.FileCount)
}
