package importer

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetch resolves a workbook location to a local file. Local paths pass
// through; http(s) and ftp URLs download to a temp file. The cleanup func
// removes any temp file and is safe to call unconditionally.
func Fetch(ctx context.Context, location string, timeout time.Duration) (string, func(), error) {
	noop := func() {}
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return downloadHTTP(ctx, location, timeout)
	case strings.HasPrefix(location, "ftp://"):
		return downloadFTP(ctx, location, timeout)
	default:
		if _, err := os.Stat(location); err != nil {
			return "", noop, eris.Wrapf(err, "importer: stat %s", location)
		}
		return location, noop, nil
	}
}

func spool(body io.Reader) (string, func(), error) {
	noop := func() {}
	tmp, err := os.CreateTemp("", "packdb-import-*.xlsx")
	if err != nil {
		return "", noop, eris.Wrap(err, "importer: create temp file")
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, eris.Wrap(err, "importer: spool download")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, eris.Wrap(err, "importer: close temp file")
	}
	return tmp.Name(), cleanup, nil
}

func downloadHTTP(ctx context.Context, rawURL string, timeout time.Duration) (string, func(), error) {
	noop := func() {}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", noop, eris.Wrap(err, "importer: build request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", noop, eris.Wrapf(err, "importer: fetch %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", noop, eris.Errorf("importer: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return spool(resp.Body)
}

func downloadFTP(ctx context.Context, rawURL string, timeout time.Duration) (string, func(), error) {
	noop := func() {}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", noop, eris.Wrap(err, "importer: parse ftp url")
	}
	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return "", noop, eris.New("importer: empty path in ftp url")
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", u.Path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", noop, eris.Wrapf(err, "importer: dial %s", host)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return "", noop, eris.Wrapf(err, "importer: login %s", host)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return "", noop, eris.Wrapf(err, "importer: retrieve %s", u.Path)
	}
	defer resp.Close()

	return spool(resp)
}
