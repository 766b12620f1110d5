// Package web implements the LAN distribution server: it publishes the
// mobile app package behind a small landing page so a phone on the same
// network can install it by scanning one code.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"conductor/internal/config"
	appLog "conductor/internal/log"
	"conductor/internal/qr"
)

//go:embed templates/landing.html
var embeddedTemplates embed.FS

// Server serves the landing page, the APK file, a health probe and a QR
// image of the install URL.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	apkPath    string
	apkName    string
	installURL string

	landing *template.Template
}

// NewServer constructs a Server. It resolves which package file to publish
// (release preferred, debug fallback) and fails if neither exists.
func NewServer(cfg *config.Config) (*Server, error) {
	apkPath, apkName, err := resolveAPK(cfg)
	if err != nil {
		return nil, err
	}

	landing, err := template.ParseFS(embeddedTemplates, "templates/landing.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse landing template: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		apkPath:    apkPath,
		apkName:    apkName,
		installURL: "http://" + net.JoinHostPort(LocalIP(), listenPort(cfg.Listen)),
		landing:    landing,
	}
	s.registerRoutes()
	return s, nil
}

// InstallURL is the address a phone on the same network should open.
func (s *Server) InstallURL() string { return s.installURL }

// APKName is the filename the package is published under.
func (s *Server) APKName() string { return s.apkName }

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/qr.png", s.handleQR)
	s.mux.HandleFunc("/"+s.apkName, s.handleAPK)
	s.mux.HandleFunc("/", s.handleLanding)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleLanding renders the install page. Any path other than the root (and
// the routes registered above) is a 404; this server publishes exactly one
// artifact.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(s.apkPath)
	if err != nil {
		appLog.Error("apk vanished after startup", err, "path", s.apkPath)
		http.Error(w, "package not available", http.StatusNotFound)
		return
	}

	data := struct {
		APKName string
		SizeMB  string
	}{
		APKName: s.apkName,
		SizeMB:  fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.landing.Execute(w, data); err != nil {
		appLog.Error("landing render failed", err)
	}
}

// handleAPK streams the package with the Android archive content type so
// browsers offer installation instead of display.
func (s *Server) handleAPK(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(s.apkPath)
	if err != nil {
		http.Error(w, "package not available", http.StatusNotFound)
		return
	}

	appLog.Info("serving apk", "name", s.apkName, "size_bytes", info.Size(), "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	w.Header().Set("Content-Disposition", "attachment; filename="+s.apkName)
	http.ServeFile(w, r, s.apkPath)
}

// handleQR serves a QR image of the install URL so a second device can join
// by pointing its camera at the first one's screen.
func (s *Server) handleQR(w http.ResponseWriter, _ *http.Request) {
	png, err := qr.PNG(s.installURL, qrcode.Medium)
	if err != nil {
		appLog.Error("install qr render failed", err)
		http.Error(w, "qr not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func Start(ctx context.Context, cfg *config.Config) error {
	s, err := NewServer(cfg)
	if err != nil {
		return err
	}

	appLog.Info("starting distribution server",
		"listen", cfg.Listen,
		"apk", s.apkName,
		"install_url", s.installURL,
	)

	if ascii, err := qr.ASCII(s.installURL); err == nil {
		fmt.Println()
		fmt.Println("  Open this URL on your Android phone:")
		fmt.Printf("  %s\n\n", s.installURL)
		fmt.Print(ascii)
		fmt.Println()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// resolveAPK picks the package file to publish: release build first, debug
// build as fallback.
func resolveAPK(cfg *config.Config) (path, name string, err error) {
	if fileExists(cfg.ReleaseAPK) {
		return cfg.ReleaseAPK, "conductor-release.apk", nil
	}
	if fileExists(cfg.DebugAPK) {
		return cfg.DebugAPK, "conductor-debug.apk", nil
	}
	return "", "", fmt.Errorf("web: no apk found at %s or %s (run the app build first)",
		cfg.ReleaseAPK, cfg.DebugAPK)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && filepath.Ext(path) == ".apk"
}

// LocalIP returns the machine's LAN address by opening a UDP "connection"
// to a public address; no packets are sent, the kernel just picks the
// outbound interface. Falls back to localhost.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "localhost"
}

// listenPort extracts the port from a listen address like ":8888" or
// "0.0.0.0:8888".
func listenPort(listen string) string {
	_, port, err := net.SplitHostPort(listen)
	if err != nil || port == "" {
		return "8888"
	}
	return port
}
