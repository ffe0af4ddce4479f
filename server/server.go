package server

import (
	"crypto/tls"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/serisow/ailab/handlers"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
}

// Handlers bundles the route handlers the router mounts.
type Handlers struct {
	Documents *handlers.DocumentHandler
	Search    *handlers.SearchHandler
	Chat      *handlers.ChatHandler
	Image     *handlers.ImageHandler
	Vision    *handlers.VisionHandler
	History   *handlers.HistoryHandler
}

func SetupRoutes(h Handlers) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/documents", h.Documents.Ingest).Methods("POST")
	api.HandleFunc("/documents", h.Documents.List).Methods("GET")
	api.HandleFunc("/documents/stats", h.Documents.Stats).Methods("GET")
	api.HandleFunc("/documents/{id}", h.Documents.Delete).Methods("DELETE")

	api.HandleFunc("/search", h.Search.Search).Methods("POST")
	api.HandleFunc("/chat", h.Chat.Chat).Methods("POST")
	api.HandleFunc("/images", h.Image.Generate).Methods("POST")
	api.HandleFunc("/vision", h.Vision.Analyze).Methods("POST")

	api.HandleFunc("/history", h.History.List).Methods("GET")
	api.HandleFunc("/history", h.History.Save).Methods("POST")
	api.HandleFunc("/history/{id}", h.History.Get).Methods("GET")
	api.HandleFunc("/history/{id}", h.History.Delete).Methods("DELETE")

	return r
}

// ServeProduction build the server when we operate in a production environment.
func ServeProduction(cfg Config, n *negroni.Negroni) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	// Configure the TLS config to use the autocertManager.GetCertificate function.
	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		// Streaming chat responses can outlive a short write timeout.
		WriteTimeout: 5 * time.Minute,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment start the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
