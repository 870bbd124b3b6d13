package viewer

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
)

//go:embed static/viewer.html
var pageHTML string

var pageTemplate = template.Must(template.New("viewer").Parse(pageHTML))

// pageData carries the values the page needs to reach the socket server.
type pageData struct {
	SocketPort int
}

// handlePage renders the embedded viewer page with the socket port baked
// in. The page runs the reconnect loop and model-load sequencing; the
// server only honors the message contract.
func (b *Bridge) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	b.mu.Lock()
	data := pageData{SocketPort: b.socketPort}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		b.log.Error("viewer bridge: rendering page", "error", err)
	}
}

// statusResponse is the JSON body of the status endpoint.
type statusResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

// handleStatus reports bridge state for local diagnostics.
func (b *Bridge) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Status: "running", Connected: b.Connected()}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
