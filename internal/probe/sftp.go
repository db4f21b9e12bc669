package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pkg/sftp"

	"github.com/argusmon/argus/internal/monitor"
)

// SFTPProbe checks that an SFTP session can be established and that a
// directory listing works. A permission denied answer still counts as UP
// since the protocol itself responded properly.
type SFTPProbe struct {
	ep   monitor.Endpoint
	path string
	conf sshConfig
}

func NewSFTPProbe(ep monitor.Endpoint) (SFTPProbe, error) {
	conf, err := newSSHConfig(ep)
	if err != nil {
		return SFTPProbe{}, err
	}

	path := ep.RemotePath
	if path == "" {
		path = "."
	}

	return SFTPProbe{
		ep:   ep,
		path: path,
		conf: conf,
	}, nil
}

func (p SFTPProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p SFTPProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	st := time.Now()
	rec := monitor.NewResult(p.ep.ID, monitor.StatusUp, st, 0, "")

	sess, err := dialSSH(ctx, p.conf)
	rec.Extra = sess.Extra()
	if err != nil {
		sess.Close()
		rec.Status = monitor.StatusDown
		rec.Message = sshErrorToMessage(err)
		return p.done(ctx, rec, st)
	}
	defer sess.Close()

	client, err := sftp.NewClient(sess.Client)
	if err != nil {
		rec.Status = monitor.StatusDown
		rec.Message = fmt.Sprintf("failed to establish SFTP connection: %s", err)
		return p.done(ctx, rec, st)
	}
	defer client.Close()

	files, err := client.ReadDir(p.path)
	switch {
	case err == nil:
		rec.Message = "directory exists"
		rec.Extra["path"] = p.path
		rec.Extra["file_count"] = len(files)
	case isPermissionDenied(err):
		rec.Message = "permission denied"
		rec.Extra["path"] = p.path
	default:
		rec.Status = monitor.StatusDown
		rec.Message = fmt.Sprintf("failed to list directory: %s", err)
	}

	return p.done(ctx, rec, st)
}

func (p SFTPProbe) done(ctx context.Context, rec monitor.CheckResult, st time.Time) monitor.CheckResult {
	d := time.Since(st)
	rec.Latency = d
	rec.LatencyMS = float64(d.Microseconds()) / 1000
	return timeoutOr(ctx, rec)
}

func isPermissionDenied(err error) bool {
	var sErr *sftp.StatusError
	if errors.As(err, &sErr) && sErr.FxCode() == sftp.ErrSSHFxPermissionDenied {
		return true
	}
	return errors.Is(err, fs.ErrPermission)
}
