package middlewares

import (
	"bytes"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"activityhub/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// CacheKeyFrom returns the Redis key and its namespace ("list" or "item") for
// cacheable requests, or empty strings when the request must not be cached.
func CacheKeyFrom(c *gin.Context) (string, string) {
	if c.Request.Method != http.MethodGet {
		return "", ""
	}

	switch c.FullPath() {
	case "/activities":
		return utils.ActivityListKeyPrefix + utils.Sha1Hex("GET|/activities|"+c.Request.URL.RawQuery), "list"
	case "/activities/:id":
		return utils.ActivityItemKey(c.Param("id")), "item"
	case "/activities/:id/attendees":
		return utils.ActivityItemKey(c.Param("id")) + ":attendees", "item"
	default:
		return "", ""
	}
}

// ResponseCache serves 2xx GET responses for activities from Redis. A Redis
// failure falls through to the handler.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := CacheKeyFrom(c)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw
		c.Writer.Header().Set("X-Cache", "MISS")

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			header := make(map[string][]string)
			for k, v := range c.Writer.Header() {
				if k == "X-Cache" {
					continue
				}
				header[k] = v
			}
			item := cachedBody{
				Status: bw.Status(),
				Header: header,
				Body:   buf.Bytes(),
			}

			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(ctx, key, o.Bytes(), ttl).Err()
			}
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
