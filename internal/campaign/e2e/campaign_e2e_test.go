//go:build e2e

package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/campaign"
	"github.com/sugarfunk/campaignshot/internal/config"
	"github.com/sugarfunk/campaignshot/internal/logging"
	"github.com/sugarfunk/campaignshot/internal/storage"
)

const loginHTML = `<!doctype html><html><body>
<form method="post" action="/admin/login">
  <input id="username" name="username">
  <input id="password" name="password" type="password">
  <button type="submit">Login</button>
</form></body></html>`

const adminHTML = `<!doctype html><html><body><h1>Dashboard</h1>
<a href="/admin/campaigns/new">New campaign</a></body></html>`

const newCampaignHTML = `<!doctype html><html><head><style>
.dropdown-menu, #editor, .modal { display: none; }
.dropdown-menu.open, #editor.shown, .modal.is-active { display: block; }
</style></head><body>
<input class="input" name="name">
<input class="input" name="subject">
<div class="list-selector">
  <button class="dropdown-trigger" onclick="document.querySelector('.dropdown-menu').classList.add('open')">Lists</button>
  <div class="dropdown-menu">
    <div class="dropdown-item"><a href="#" onclick="this.textContent='Default list (selected)'; return false;">Default list</a></div>
    <div class="dropdown-item"><a href="#">Opt-in list</a></div>
  </div>
</div>
<button onclick="document.getElementById('editor').classList.add('shown')">Continue</button>
<div id="editor" class="editor">
  <iframe name="richtext" srcdoc="<body contenteditable='true'><p>Start</p></body>"></iframe>
  <button onclick="document.querySelector('.modal').classList.add('is-active')">Preview</button>
</div>
<div class="modal"><p>Preview</p></div>
</body></html>`

func adminConsole() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if r.FormValue("username") == "admin" && r.FormValue("password") == "adminpass123" {
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, "/admin/login?error=1", http.StatusSeeOther)
			return
		}
		_, _ = w.Write([]byte(loginHTML))
	})
	mux.HandleFunc("/admin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(adminHTML))
	})
	mux.HandleFunc("/admin/campaigns/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(newCampaignHTML))
	})
	return httptest.NewServer(mux)
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Target.BaseURL = baseURL
	cfg.Screenshots.Dir = t.TempDir()
	cfg.Browser.Install = os.Getenv("CAMPAIGNSHOT_E2E_INSTALL") == "true"
	cfg.Browser.DefaultTimeout = 5 * time.Second
	cfg.Timeouts.LoginRedirect = 5 * time.Second
	return cfg
}

func run(t *testing.T, cfg *config.Config) error {
	t.Helper()
	logger, err := logging.New(os.Stdout, "debug", "text")
	require.NoError(t, err)

	backend := storage.NewFilesystemBackend(afero.NewOsFs(), cfg.Screenshots.Dir)
	driver, err := campaign.NewDriver(cfg, browser.NewPlaywrightLauncher(), backend, "e2e")
	require.NoError(t, err)

	_, err = driver.Run(context.Background(), logrus.NewEntry(logger))
	return err
}

func TestCampaignFlow(t *testing.T) {
	srv := adminConsole()
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	require.NoError(t, run(t, cfg))

	for _, name := range []string{cfg.Screenshots.Editor, cfg.Screenshots.Preview} {
		info, err := os.Stat(filepath.Join(cfg.Screenshots.Dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
	_, err := os.Stat(filepath.Join(cfg.Screenshots.Dir, cfg.Screenshots.Debug))
	assert.True(t, os.IsNotExist(err))
}

func TestCampaignFlow_ListEntry(t *testing.T) {
	srv := adminConsole()
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Navigation.Entry = config.EntryList
	cfg.Target.CampaignsPath = "/admin"
	require.NoError(t, run(t, cfg))
}

func TestCampaignFlow_BadCredentials(t *testing.T) {
	srv := adminConsole()
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Credentials.Password = "wrong"

	err := run(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, campaign.ErrAuthenticationFailed)

	_, statErr := os.Stat(filepath.Join(cfg.Screenshots.Dir, cfg.Screenshots.Debug))
	assert.NoError(t, statErr)
}
