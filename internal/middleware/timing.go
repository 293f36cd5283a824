package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PerformanceHeader reports the handling time in seconds.
const PerformanceHeader = "performance"

type timingWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timingWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(PerformanceHeader, strconv.FormatFloat(elapsed, 'f', -1, 64))
}

func (w *timingWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timingWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *timingWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// Timing adds the performance header to every response. Headers must be set
// before the first body write, so the writer stamps on its way out.
func Timing() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := &timingWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = w

		c.Next()

		w.stamp()
	}
}
