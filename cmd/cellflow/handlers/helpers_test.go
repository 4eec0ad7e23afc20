package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/cellflow/internal/config"
)

// fakeEndpoints serves the ERPNext, OctoPrint and Node-RED calls the
// handlers make.
type fakeEndpoints struct {
	erp     *httptest.Server
	printer *httptest.Server
	sorter  *httptest.Server
}

func newFakeEndpoints(t *testing.T) *fakeEndpoints {
	t.Helper()

	erp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/method/frappe.auth.get_logged_user":
			fmt.Fprint(w, `{"message":"robot@example.com"}`)
		case strings.HasPrefix(r.URL.Path, "/api/resource/"):
			fmt.Fprint(w, `{"data":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	printer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/printer" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"state":{"text":"Operational","flags":{"operational":true}}}`)
	}))
	sorter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}))

	t.Cleanup(func() {
		erp.Close()
		printer.Close()
		sorter.Close()
	})

	return &fakeEndpoints{erp: erp, printer: printer, sorter: sorter}
}

// writeTestConfig writes a cellflow.yaml pointing at the given URLs and
// returns its path.
func writeTestConfig(t *testing.T, erpURL, printerURL, sorterURL string) string {
	t.Helper()

	dir := t.TempDir()
	data := fmt.Sprintf(`erpnext:
  url: %s
  company: Acme
  fg_warehouse: Finished Goods - AC
  wip_warehouse: Work In Progress - AC
printer:
  url: %s
  poll_interval: 1s
  max_wait: 2h
sorter:
  url: %s
  retries: 12
routes:
  ITEM-A:
    device: printer
    file: part.gcode
  ITEM-B:
    device: sorter
    policy: draft_confirm
default_device: printer
default_file: generic.gcode
state:
  ledger_file: %s
  error_log: %s
ops:
  listen: ""
`, erpURL, printerURL, sorterURL,
		filepath.Join(dir, "processed_so.json"),
		filepath.Join(dir, "error_log.txt"))

	path := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvERPNextAPIKey, "key")
	t.Setenv(config.EnvERPNextAPISecret, "secret")
	t.Setenv(config.EnvOctoPrintAPIKey, "octo")
}

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
