package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleConfig serves the configuration page. When reached through
// /:configuration/configure the script pre-fills the form from the URL.
func (h *Handler) handleConfig(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(configPage))
}

const configPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>StreamHub configuration</title>
  <style>
    :root { --primary-color: #4a90e2; --secondary-color: #50e3c2; --background-color: #f7f9fc; }
    * { box-sizing: border-box; }
    body { font-family: sans-serif; background-color: var(--background-color); margin: 0; padding: 20px;
           display: flex; align-items: center; justify-content: center; min-height: 100vh; }
    .container { background-color: #fff; border-radius: 8px; padding: 30px; max-width: 520px; width: 100%;
                 box-shadow: 0 4px 12px rgba(0, 0, 0, 0.1); }
    h1 { text-align: center; color: var(--primary-color); }
    label { font-weight: 500; margin-top: 15px; display: block; }
    input { width: 100%; padding: 10px; border: 1px solid #ccc; border-radius: 4px; margin-top: 5px; }
    button { background-color: var(--primary-color); color: #fff; border: none; padding: 12px 20px;
             border-radius: 4px; cursor: pointer; margin-top: 25px; width: 100%; }
    button:hover { background-color: var(--secondary-color); }
    .result { margin-top: 25px; background-color: #f1f3f5; border-radius: 4px; padding: 15px; word-break: break-all; }
  </style>
  <script>
    function list(id) {
      return document.getElementById(id).value.split(/[,;]/).map(s => s.trim()).filter(s => s);
    }

    function loadConfig() {
      const parts = window.location.pathname.split('/').filter(p => p);
      if (parts.length < 2 || parts[parts.length - 1] !== 'configure') return;
      try {
        const cfg = JSON.parse(atob(parts[parts.length - 2]));
        document.getElementById('tmdb').value = cfg.TMDB_API_KEY || '';
        document.getElementById('alldebrid').value = cfg.API_KEY_ALLDEBRID || '';
        document.getElementById('realdebrid').value = cfg.API_KEY_REALDEBRID || '';
        document.getElementById('exclude').value = (cfg.EXCLUDE_PATTERNS || []).join(';');
        document.getElementById('sources').value = (cfg.ENABLED_SOURCES || []).join(',');
        document.getElementById('maxsize').value = cfg.MAX_SIZE_GB || '';
      } catch (e) {
        console.error('Error decoding configuration:', e);
      }
    }

    function generateConfig() {
      const cfg = {
        TMDB_API_KEY: document.getElementById('tmdb').value,
        API_KEY_ALLDEBRID: document.getElementById('alldebrid').value,
        API_KEY_REALDEBRID: document.getElementById('realdebrid').value,
        EXCLUDE_PATTERNS: list('exclude'),
      };
      const sources = list('sources');
      if (sources.length) cfg.ENABLED_SOURCES = sources;
      const maxSize = parseFloat(document.getElementById('maxsize').value);
      if (maxSize > 0) cfg.MAX_SIZE_GB = maxSize;

      const encoded = btoa(JSON.stringify(cfg));
      const manifest = window.location.origin + '/' + encoded + '/manifest.json';
      document.getElementById('result').innerHTML =
        '<p><strong>Manifest:</strong></p><p><a href="' + manifest + '">' + manifest + '</a></p>' +
        '<p><a href="stremio://' + manifest.replace(/^https?:\/\//, '') + '">Install in Stremio</a></p>';
    }

    window.onload = loadConfig;
  </script>
</head>
<body>
  <div class="container">
    <h1>StreamHub</h1>
    <label for="tmdb">TMDB API key</label>
    <input type="text" id="tmdb">
    <label for="alldebrid">AllDebrid API key</label>
    <input type="text" id="alldebrid">
    <label for="realdebrid">RealDebrid API token</label>
    <input type="text" id="realdebrid">
    <label for="exclude">Excluded title patterns (regex, separated by ;)</label>
    <input type="text" id="exclude" placeholder="\bcam\b;sample">
    <label for="sources">Enabled sources (comma separated, empty for all)</label>
    <input type="text" id="sources" placeholder="apibay,torrentscsv,eztv,addons">
    <label for="maxsize">Maximum size in GB</label>
    <input type="number" id="maxsize" min="0" step="0.5">
    <button onclick="generateConfig()">Generate</button>
    <div id="result" class="result"></div>
  </div>
</body>
</html>`
