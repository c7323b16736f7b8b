package sqldb

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/iesplan/ies_core/internal/pkg/msg"
	"gotest.tools/v3/assert"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "sqldb")
	assert.NilError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "sqldb.json")
	body := `{
		"Server": "localhost",
		"Port": 3306,
		"Username": "ies",
		"Password": "secret",
		"Database": "ies_results"
	}`
	assert.NilError(t, ioutil.WriteFile(path, []byte(body), 0644))
	return path
}

func newHandler(t *testing.T) (Handler, *msg.PubSub) {
	t.Helper()
	pid, _ := uuid.NewUUID()
	pub := msg.NewPublisher(pid)
	h, err := New(writeConfig(t), pub)
	assert.NilError(t, err)
	return h, pub
}

func TestGetConfig(t *testing.T) {
	h, _ := newHandler(t)
	assert.Equal(t, 3306, h.config.Port)
	assert.Equal(t, "localhost", h.config.Server)
	assert.Equal(t, "ies_results", h.config.Database)
}

func TestDSN(t *testing.T) {
	h, _ := newHandler(t)
	assert.Equal(t, "ies:secret@tcp(localhost:3306)/ies_results", h.dsn())
}

func TestMissingConfig(t *testing.T) {
	pid, _ := uuid.NewUUID()
	pub := msg.NewPublisher(pid)
	_, err := New("/nonexistent/sqldb.json", pub)
	assert.Assert(t, err != nil)
}

func TestProcessExitsOnPublisherStop(t *testing.T) {
	h, pub := newHandler(t)

	done := make(chan bool)
	go func() {
		h.Process()
		done <- true
	}()

	pub.Stop()
	<-done

	// stopping after the loop has already exited must not block
	h.StopProcess()
}
