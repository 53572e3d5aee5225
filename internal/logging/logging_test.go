package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fb.log")

	log, closer, err := New("debug", path)
	require.NoError(t, err)
	log.WithField("component", "session").Debug("Connection state changed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=debug")
	assert.Contains(t, string(data), `msg="Connection state changed"`)
	assert.Contains(t, string(data), "component=session")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New("chatty", "")
	require.Error(t, err)
}

func TestConsoleFormatter(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{"to": "subscribed", "from": "discovering"})
	entry.Level = logrus.WarnLevel
	entry.Message = "Connection state changed"

	out, err := new(consoleFormatter).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[WARNING] Connection state changed from=discovering to=subscribed\n", string(out))
}

func TestConsoleFormatterWithError(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithError(errors.New("boom"))
	entry.Level = logrus.ErrorLevel
	entry.Message = "failed"

	out, err := new(consoleFormatter).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[ERROR] failed error=boom\n", string(out))
}
