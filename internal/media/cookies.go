package media

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadCookieFile reads a Netscape cookie file, the format yt-dlp and browser
// export extensions write.
func LoadCookieFile(path string) (http.CookieJar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	cookies, err := parseNetscapeCookies(f)
	if err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		byHost[host] = append(byHost[host], c)
	}
	for host, list := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, list)
	}
	return jar, nil
}

// parseNetscapeCookies parses tab separated lines:
// domain, include-subdomains, path, secure, expiry, name, value.
func parseNetscapeCookies(r io.Reader) ([]*http.Cookie, error) {
	var out []*http.Cookie
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		httpOnly := false
		if strings.HasPrefix(text, httpOnlyPrefix) {
			httpOnly = true
			text = strings.TrimPrefix(text, httpOnlyPrefix)
		}
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: expected 7 tab separated fields, got %d", line, len(fields))
		}
		value := ""
		if len(fields) >= 7 {
			value = fields[6]
		}
		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    value,
			HttpOnly: httpOnly,
		}
		if cookie.Path == "" {
			cookie.Path = "/"
		}
		if expiry, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expiry > 0 {
			cookie.Expires = time.Unix(expiry, 0)
		}
		out = append(out, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
