package custom

import (
	"io"
	"net/http"
	"strings"

	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/network"
	lua "github.com/yuin/gopher-lua"
)

// registerHTTPTLS injects the global "http_tls" module. Requests go through a client with a
// browser TLS fingerprint, for hosts that turn away regular Go clients.
//
//	http_tls.get(url [, headers])  -> body
//	http_tls.request(options)      -> { status, body }
func registerHTTPTLS(L *lua.LState, opts Options) {
	client := opts.Client
	if client == nil {
		client = network.New(network.Options{Fingerprint: true})
	}

	h := &httpModule{client: client, cache: opts.Cache}

	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(h.get))
	L.SetField(mod, "request", L.NewFunction(h.request))
	L.SetGlobal("http_tls", mod)
}

type httpModule struct {
	client *http.Client
	cache  *cache.Store
}

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (h *httpModule) get(L *lua.LState) int {
	url := L.CheckString(1)
	headers := tableToHeaders(L.OptTable(2, nil))

	resp, err := h.do(L, http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

func (h *httpModule) request(L *lua.LState) int {
	opts := L.CheckTable(1)

	method := strings.ToUpper(getString(opts, "method"))
	if method == "" {
		method = http.MethodGet
	}

	url := getString(opts, "url")
	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	body := getString(opts, "body")
	headers := getStringMap(opts, "headers")
	useCache := h.cache != nil && lua.LVAsBool(opts.RawGetString("cache"))

	var cacheKey string
	if useCache {
		cacheKey = cache.GenerateKey("http_tls", method, url, body)

		var entry cachedResponse
		if h.cache.Read(cacheKey, &entry) {
			L.Push(responseTable(L, entry))
			return 1
		}
	}

	resp, err := h.do(L, method, url, headers, body)
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	if useCache && resp.Status == http.StatusOK {
		_ = h.cache.Write(cacheKey, resp)
	}

	L.Push(responseTable(L, resp))
	return 1
}

func (h *httpModule) do(L *lua.LState, method, url string, headers map[string]string, body string) (cachedResponse, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return cachedResponse{}, err
	}

	if ctx := L.Context(); ctx != nil {
		req = req.WithContext(ctx)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return cachedResponse{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedResponse{}, err
	}

	return cachedResponse{Status: resp.StatusCode, Body: string(data)}, nil
}

func tableToHeaders(table *lua.LTable) map[string]string {
	if table == nil {
		return nil
	}

	headers := make(map[string]string)
	table.ForEach(func(k, v lua.LValue) {
		headers[k.String()] = v.String()
	})
	return headers
}

func responseTable(L *lua.LState, resp cachedResponse) *lua.LTable {
	table := L.NewTable()
	L.SetField(table, "status", lua.LNumber(resp.Status))
	L.SetField(table, "body", lua.LString(resp.Body))
	return table
}
