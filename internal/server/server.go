// Package server publishes the per-subscriber iCalendar feeds over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// cacheItem stores one rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// CalendarServer serves the feeds built by the last refresh, keyed by feed key.
type CalendarServer struct {
	// The whole feed set is swapped at once so readers never see a mix of
	// two refreshes.
	cache  atomic.Pointer[map[string]*cacheItem]
	Listen string
}

// NewCalendarServer creates a server bound to listen (host:port) once started.
func NewCalendarServer(listen string) *CalendarServer {
	return &CalendarServer{
		Listen: listen,
	}
}

// Handler returns the routing for the feed endpoint.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteFeed, s.handleCalendarRequest)
	return mux
}

// Start listens on s.Listen and serves until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Listen == "" {
		return errors.New(config.ErrListenRequired)
	}
	ln, err := net.Listen("tcp", s.Listen)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and blocks until the context is cancelled.
func (s *CalendarServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyListen, ln.Addr().String(),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces every served feed. A feed whose content did not
// change keeps its Last-Modified time.
func (s *CalendarServer) Update(feeds map[string][]byte) {
	var previous map[string]*cacheItem
	if p := s.cache.Load(); p != nil {
		previous = *p
	}

	now := time.Now().UTC().Format(http.TimeFormat)
	next := make(map[string]*cacheItem, len(feeds))
	for key, data := range feeds {
		hash := sha256.Sum256(data)
		etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

		lastMod := now
		if old, ok := previous[key]; ok && old.etag == etag {
			lastMod = old.lastModified
		}
		next[key] = &cacheItem{
			data:         data,
			etag:         etag,
			lastModified: lastMod,
		}
	}

	s.cache.Store(&next)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFeeds, len(next),
	)
}

// handleCalendarRequest serves one feed with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	feeds := s.cache.Load()
	if feeds == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	key := strings.TrimSuffix(r.PathValue(config.PathValueKey), config.FeedExtension)
	item, ok := (*feeds)[key]
	if !ok {
		http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
