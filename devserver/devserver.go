// Package devserver runs the local development counterpart of the hosting
// API: a small file server rooted at a site checkout. The admin panel's
// local backend reads files through GET /get/<path> and writes publish
// batches through POST /save-files, so the whole editing flow works
// against a working copy before anything touches a real repository.
package devserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gitpress-io/gitpress/store"
)

// Config holds the dev server settings.
type Config struct {
	// Addr is the listen address. Defaults to 127.0.0.1:3000, matching
	// the local backend's default target.
	Addr string

	// Root is the site checkout directory that files are read from and
	// written to. Defaults to the current directory.
	Root string
}

// Server serves a site checkout over the local backend protocol.
type Server struct {
	echo *echo.Echo
	root string
	addr string
}

// New creates a dev server for the given checkout.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:3000"
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("devserver: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("devserver: root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("devserver: root %s is not a directory", root)
	}

	s := &Server{
		echo: echo.New(),
		root: root,
		addr: cfg.Addr,
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	s.echo.GET("/isAlive", s.handleIsAlive)
	s.echo.GET("/get/*", s.handleGet)
	s.echo.POST("/save-files", s.handleSaveFiles)
	return s, nil
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleIsAlive(c echo.Context) error {
	return c.String(http.StatusOK, "success!")
}

// resolve maps a request path onto the checkout, refusing anything that
// would escape the root.
func (s *Server) resolve(reqPath string) (string, error) {
	clean := store.NormalizePath(reqPath)
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "path escapes site root")
	}
	return full, nil
}

func (s *Server) handleGet(c echo.Context) error {
	full, err := s.resolve(c.Param("*"))
	if err != nil {
		return err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "no such file")
	}
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (s *Server) handleSaveFiles(c echo.Context) error {
	var files []store.FileArtifact
	if err := c.Bind(&files); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot parse request")
	}
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty file list")
	}

	// Validate the whole batch before writing anything; a bad entry should
	// not leave a half-applied batch behind.
	type write struct {
		path string
		data []byte
	}
	writes := make([]write, 0, len(files))
	for _, f := range files {
		full, err := s.resolve(f.Path)
		if err != nil {
			return err
		}
		var data []byte
		switch f.Encoding {
		case store.EncodingBase64:
			data, err = base64.StdEncoding.DecodeString(f.Content)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("bad base64 content for %s", f.Path))
			}
		case store.EncodingUTF8, "":
			data = []byte(f.Content)
		default:
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown encoding %q", f.Encoding))
		}
		writes = append(writes, write{path: full, data: data})
	}

	for _, w := range writes {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(w.path, w.data, 0o644); err != nil {
			return err
		}
	}
	return c.String(http.StatusOK, "done")
}
