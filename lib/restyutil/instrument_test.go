package restyutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-served-by", "fixture")
		fmt.Fprint(w, "<h1>hello</h1>")
	}))
	defer server.Close()

	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, nil, output)

	for range 2 {
		res, err := client.R().
			SetHeader("x-test", "1").
			Get(server.URL + "/p/1")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode())
	}

	require.Len(t, output.messages, 2)
	message := output.messages["2"]
	require.Contains(t, message, "GET "+server.URL+"/p/1")
	require.Contains(t, message, "X-Test: 1")
	require.Contains(t, message, "X-Served-By: fixture")
	require.True(t, strings.HasSuffix(message, "<h1>hello</h1>"))
}

func TestInstrumentClientError(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, nil, nil)

	_, err := client.R().Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("7", "contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	written, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}
