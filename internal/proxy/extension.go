// Package proxy builds the per-attempt credentials for the rotating-IP
// gateway and the browser extension artifact that injects them.
package proxy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Gateway holds the static upstream proxy credentials. The username is the
// account stem; per-attempt session users are derived from it.
type Gateway struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Session is one short-lived credentialed connection through the gateway.
// The rotating gateway assigns a new egress IP per session id, so a fresh
// Session per browser-launch attempt is the core anti-block strategy.
type Session struct {
	Gateway
	ID string
}

// NewSession derives a session with a random id, scoped to one attempt.
func NewSession(gw Gateway) Session {
	return Session{Gateway: gw, ID: uuid.NewString()[:8]}
}

// SessionUsername returns the gateway username carrying the session id.
func (s Session) SessionUsername() string {
	return fmt.Sprintf("%s-session-%s", s.Username, s.ID)
}

// Server returns the proxy address in scheme://host:port form.
func (s Session) Server() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

const manifestJSON = `{
    "version": "1.0.0",
    "manifest_version": 2,
    "name": "Proxy Auth",
    "permissions": ["proxy", "tabs", "unlimitedStorage", "storage", "<all_urls>", "webRequest", "webRequestBlocking"],
    "background": {"scripts": ["background.js"]},
    "minimum_chrome_version": "22.0.0"
}`

const backgroundJSTemplate = `var config = {
    mode: "fixed_servers",
    rules: { singleProxy: { scheme: "http", host: "%HOST%", port: %PORT% }, bypassList: ["localhost"] }
};
chrome.proxy.settings.set({value: config, scope: "regular"}, function() {});
function callbackFn(details) { return { authCredentials: { username: "%USER%", password: "%PASS%" } }; }
chrome.webRequest.onAuthRequired.addListener(callbackFn, {urls: ["<all_urls>"]}, ['blocking']);
`

// BuildExtension writes an unpacked browser extension that forces all
// traffic through the session's gateway and answers its authentication
// challenge, so no credential prompt ever blocks a page load. Every call
// produces a uniquely named directory; the caller owns removing it. A write
// failure must fail the attempt rather than launch an unauthenticated
// browser.
func BuildExtension(s Session) (string, error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("proxy-auth-%s-", s.ID))
	if err != nil {
		return "", fmt.Errorf("create extension dir: %w", err)
	}

	background := strings.NewReplacer(
		"%HOST%", s.Host,
		"%PORT%", fmt.Sprintf("%d", s.Port),
		"%USER%", s.SessionUsername(),
		"%PASS%", s.Password,
	).Replace(backgroundJSTemplate)

	files := map[string]string{
		"manifest.json": manifestJSON,
		"background.js": background,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("write extension file %s: %w", name, err)
		}
	}

	return dir, nil
}
