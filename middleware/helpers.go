package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Dosada05/venue-system/services"
)

func GetSessionFromContext(ctx context.Context) (*services.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*services.Session)
	return session, ok && session != nil
}

func GetUserIDFromContext(ctx context.Context) (string, error) {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return "", errors.New("session not found in context")
	}
	if session.UserID == "" {
		return "", errors.New("session has no user id")
	}
	return session.UserID, nil
}

// ClientIP возвращает адрес клиента для rate limit: хост из RemoteAddr.
// Заголовки X-Forwarded-For учитываются только через RealIP с доверенными прокси.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseTrustedProxies разбирает список CIDR или одиночных адресов.
func ParseTrustedProxies(items []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			ip := net.ParseIP(item)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", item)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(item)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", item, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

// RealIP подставляет в RemoteAddr адрес клиента из X-Forwarded-For, только если запрос
// пришёл от доверенного прокси. Берётся самый правый адрес цепочки, не принадлежащий прокси.
func RealIP(trusted []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedClient(r, trusted); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(r *http.Request, trusted []*net.IPNet) string {
	peer := net.ParseIP(ClientIP(r))
	if peer == nil || !isTrusted(peer, trusted) {
		return ""
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			return ""
		}
		if !isTrusted(ip, trusted) {
			return ip.String()
		}
	}
	return ""
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
