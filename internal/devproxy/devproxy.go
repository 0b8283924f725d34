// Package devproxy is the local development proxy: it forwards /api/* to a
// backend origin with the prefix stripped and serves the built console from
// disk for everything else.
package devproxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIPrefix is the path prefix that is forwarded.
const APIPrefix = "/api"

// Options configure the proxy.
type Options struct {
	// Origin is the backend root requests are forwarded to.
	Origin string
	// StaticDir, when set, is served for non-API paths with index.html as
	// the fallback for client-side routes.
	StaticDir string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// New returns the proxy handler.
func New(opts Options, logger zerolog.Logger) (http.Handler, error) {
	origin, err := url.Parse(strings.TrimRight(opts.Origin, "/"))
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin %q", opts.Origin)
	}
	log := logger.With().Str("component", "devproxy").Str("origin", origin.String()).Logger()

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.Out.URL.Path, APIPrefix)
			pr.Out.URL.RawPath = strings.TrimPrefix(pr.Out.URL.RawPath, APIPrefix)
			pr.SetURL(origin)
			pr.SetXForwarded()
		},
		Transport: opts.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream request failed")
			http.Error(w, "upstream unavailable: "+err.Error(), http.StatusBadGateway)
		},
	}

	mux := http.NewServeMux()
	mux.Handle(APIPrefix+"/", logged(rp, log))
	if opts.StaticDir != "" {
		mux.Handle("/", spa(opts.StaticDir))
	}
	return mux, nil
}

func logged(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("proxied")
	})
}

// spa serves files from dir, answering unknown paths with index.html.
func spa(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err != nil || info.IsDir() && r.URL.Path != "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
