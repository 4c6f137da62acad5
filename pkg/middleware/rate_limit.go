package middleware

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "appointly/pkg/errors"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. A client may spend limit
// requests in a burst and regains them evenly over window.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	proxies  []netip.Prefix
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter keys buckets on the connection peer. Forwarding headers are read only from
// peers inside trustedProxies.
func NewIPRateLimiter(limit int, window time.Duration, trustedProxies []netip.Prefix, log *logger.Logger) *IPRateLimiter {
	if limit < 1 {
		limit = 1
	}
	rl := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		proxies:  trustedProxies,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*rl.window {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Reserve spends a token for ip. It returns false and the wait until the next token when the bucket is empty.
func (rl *IPRateLimiter) Reserve(ip string) (bool, time.Duration) {
	limiter := rl.limiterFor(ip)
	now := time.Now()
	if limiter.AllowN(now, 1) {
		return true, 0
	}
	r := limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, limiter.proxies)

			allowed, retryAfter := limiter.Reserve(ip)
			if !allowed {
				rejectRateLimited(w, limiter.log, r, ip, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the connection peer unless the peer is a trusted proxy. Behind a trusted
// proxy it walks X-Forwarded-For from the right and returns the first hop that is not itself
// trusted, falling back to X-Real-IP when no forwarded chain is present.
func ClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !isTrustedProxy(addr, trusted) {
		return peer
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		client := addr
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			client = hop.Unmap()
			if !isTrustedProxy(client, trusted) {
				break
			}
		}
		return client.String()
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrustedProxy(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func rejectRateLimited(w http.ResponseWriter, log *logger.Logger, r *http.Request, ip string, retryAfter time.Duration) {
	log.Warn("Rate limit exceeded",
		"request_id", RequestID(r.Context()),
		"client_ip", ip,
		"path", r.URL.Path,
	)

	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	if err := httputil.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded")); err != nil {
		log.Error("failed to write rate limit response", "error", err)
	}
}
