package log

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigure_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo)
	defer Silence()

	Debug(CatSequence, "hidden")
	Info(CatSequence, "shown", "items", 3)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "cat=sequence")
	require.Contains(t, out, "items=3")
}

func TestErrorErr_AttachesError(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelError)
	defer Silence()

	ErrorErr(CatDB, "open failed", errors.New("disk gone"), "path", "runs.db")

	out := buf.String()
	require.Contains(t, out, "open failed")
	require.Contains(t, out, "disk gone")
	require.Contains(t, out, "cat=db")
}
