package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration.
// Recorded audio and images are already compressed and pass through.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
			"text/css",
			"text/javascript",
			"application/javascript",
			"image/svg+xml",
		},
	}
}

// CompressionMiddleware provides gzip compression for HTTP responses
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	cm := &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
	}
	cm.pool.New = func() interface{} {
		gz, err := gzip.NewWriterLevel(nil, config.CompressionLevel)
		if err != nil {
			gz = gzip.NewWriter(nil)
		}
		return gz
	}
	return cm
}

// Handler returns the Gin middleware.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cm.clientAcceptsGzip(c.Request) || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		original := c.Writer
		gzw := &gzipResponseWriter{ResponseWriter: original, cm: cm, status: http.StatusOK}
		c.Writer = gzw
		defer func() {
			gzw.finish()
			c.Writer = original
		}()

		c.Next()
	}
}

// clientAcceptsGzip checks if the client accepts gzip compression
func (cm *CompressionMiddleware) clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// shouldCompress checks if the content type should be compressed
func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, ct := range cm.config.ContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) getGzipWriter(w io.Writer) *gzip.Writer {
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

func (cm *CompressionMiddleware) returnGzipWriter(gz *gzip.Writer) {
	_ = gz.Close()
	cm.pool.Put(gz)
}

// gzipResponseWriter buffers the start of a response until it knows whether
// compression applies, then streams either gzip or the raw bytes.
type gzipResponseWriter struct {
	gin.ResponseWriter
	cm *CompressionMiddleware

	buf     bytes.Buffer
	gz      *gzip.Writer
	counter countingWriter
	status  int
	wrote   bool
	decided bool
	raw     int64
}

type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (gzw *gzipResponseWriter) WriteHeader(statusCode int) {
	if !gzw.decided {
		gzw.status = statusCode
	}
}

func (gzw *gzipResponseWriter) WriteHeaderNow() {
	gzw.wrote = true
}

func (gzw *gzipResponseWriter) Status() int {
	if !gzw.decided {
		return gzw.status
	}
	return gzw.ResponseWriter.Status()
}

func (gzw *gzipResponseWriter) Written() bool {
	return gzw.wrote || gzw.ResponseWriter.Written()
}

func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	gzw.wrote = true
	gzw.raw += int64(len(data))

	if gzw.decided {
		if gzw.gz != nil {
			return gzw.gz.Write(data)
		}
		return gzw.ResponseWriter.Write(data)
	}

	gzw.buf.Write(data)
	if gzw.buf.Len() >= gzw.cm.config.MinSize {
		if err := gzw.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

func (gzw *gzipResponseWriter) decide() error {
	gzw.decided = true
	header := gzw.Header()

	compress := gzw.buf.Len() >= gzw.cm.config.MinSize &&
		gzw.status != http.StatusPartialContent &&
		header.Get("Content-Encoding") == "" &&
		gzw.cm.shouldCompress(header.Get("Content-Type"))

	if compress {
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")
		gzw.ResponseWriter.WriteHeader(gzw.status)

		gzw.counter = countingWriter{w: gzw.ResponseWriter}
		gzw.gz = gzw.cm.getGzipWriter(&gzw.counter)
		_, err := gzw.gz.Write(gzw.buf.Bytes())
		gzw.buf.Reset()
		return err
	}

	gzw.ResponseWriter.WriteHeader(gzw.status)
	if gzw.buf.Len() == 0 {
		return nil
	}
	_, err := gzw.ResponseWriter.Write(gzw.buf.Bytes())
	gzw.buf.Reset()
	return err
}

func (gzw *gzipResponseWriter) finish() {
	if !gzw.decided {
		_ = gzw.decide()
		gzw.ResponseWriter.WriteHeaderNow()
	}

	if gzw.gz != nil {
		gzw.cm.returnGzipWriter(gzw.gz)
		gzw.gz = nil
		gzw.cm.stats.RecordRequest(gzw.raw, gzw.counter.n, true)
		return
	}
	gzw.cm.stats.RecordRequest(gzw.raw, gzw.raw, false)
}

// Flush flushes the gzip writer
func (gzw *gzipResponseWriter) Flush() {
	if !gzw.decided {
		_ = gzw.decide()
	}
	if gzw.gz != nil {
		_ = gzw.gz.Flush()
	}
	gzw.ResponseWriter.Flush()
}

// Hijack hijacks the connection (for WebSocket upgrades, etc.)
func (gzw *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := gzw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("response writer does not implement http.Hijacker")
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	} else {
		cs.CompressedBytes += originalSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(1)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
		"compression_savings": 1.0 - compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
