package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/argusmon/argus/internal/monitor"
)

type sshConfig struct {
	Addr     string
	User     string
	Auth     []ssh.AuthMethod
	CheckKey func(ssh.PublicKey) (ok bool)
}

func newSSHConfig(ep monitor.Endpoint) (sshConfig, error) {
	port := ep.Port
	if port == 0 {
		port = 22
	}

	c := sshConfig{
		Addr: fmt.Sprintf("%s:%d", strings.ToLower(ep.Host), port),
		User: ep.Username,
	}

	auth, err := sshAuth(ep)
	if err != nil {
		return c, err
	}
	c.Auth = auth

	check, err := sshKeyCheck(ep.Fingerprint)
	if err != nil {
		return c, err
	}
	c.CheckKey = check

	return c, nil
}

// sshAuth prefers the identity file when one is configured; the endpoint
// password then acts as its passphrase.
func sshAuth(ep monitor.Endpoint) ([]ssh.AuthMethod, error) {
	if ep.IdentityFile == "" {
		return []ssh.AuthMethod{ssh.Password(ep.Password)}, nil
	}

	pem, err := os.ReadFile(ep.IdentityFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no such identity file: %s", ep.IdentityFile)
	} else if err != nil {
		return nil, err
	}

	var signer ssh.Signer
	if ep.Password != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(ep.Password))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		if err.Error() == "ssh: no key found" {
			return nil, fmt.Errorf("invalid identity file: %s", ep.IdentityFile)
		}
		return nil, fmt.Errorf("identity file: %w", err)
	}

	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

// sshKeyCheck builds the host key acceptance test from a pinned fingerprint.
// Spaces turn back into "+" so fingerprints that went through URL decoding
// still match.
func sshKeyCheck(pin string) (func(ssh.PublicKey) bool, error) {
	pin = strings.ReplaceAll(pin, " ", "+")

	switch {
	case pin == "":
		return func(ssh.PublicKey) bool { return true }, nil
	case strings.HasPrefix(pin, "SHA256:"):
		return func(key ssh.PublicKey) bool {
			return ssh.FingerprintSHA256(key) == pin
		}, nil
	case strings.HasPrefix(pin, "MD5:"):
		want := strings.ToLower(pin)[len("MD5:"):]
		return func(key ssh.PublicKey) bool {
			return ssh.FingerprintLegacyMD5(key) == want
		}, nil
	default:
		return nil, errors.New("unsupported fingerprint format")
	}
}

type sshSession struct {
	Client      *ssh.Client
	Fingerprint string
	LocalAddr   string
	RemoteAddr  string
}

func (s sshSession) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// Extra reports connection details for the check record. Fields the dial
// never reached stay absent.
func (s sshSession) Extra() map[string]any {
	extra := make(map[string]any)
	if s.Fingerprint != "" {
		extra["fingerprint"] = s.Fingerprint
	}
	if s.LocalAddr != "" {
		extra["source_addr"] = s.LocalAddr
	}
	if s.RemoteAddr != "" {
		extra["target_addr"] = s.RemoteAddr
	}
	return extra
}

func dialSSH(ctx context.Context, c sshConfig) (sshSession, error) {
	var sess sshSession

	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return sess, err
	}

	handshakeTimeout := 10 * time.Minute
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < handshakeTimeout {
			handshakeTimeout = remain
		}
		// the config Timeout only covers dialing; the socket deadline
		// bounds the handshake itself
		raw.SetDeadline(deadline)
	}

	sess.LocalAddr = raw.LocalAddr().String()
	sess.RemoteAddr = raw.RemoteAddr().String()

	conf := &ssh.ClientConfig{
		User:    c.User,
		Auth:    c.Auth,
		Timeout: handshakeTimeout,
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			sess.Fingerprint = ssh.FingerprintSHA256(key)
			if !c.CheckKey(key) {
				return errors.New("fingerprint unmatched")
			}
			return nil
		},
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(raw, c.Addr, conf)
	if err != nil {
		raw.Close()
		return sess, err
	}

	sess.Client = ssh.NewClient(sshConn, chans, reqs)
	return sess, nil
}

// sshErrorToMessage names the reason dialSSH failed.
func sshErrorToMessage(err error) string {
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.As(err, &dnsErr):
		return dnsErrorToMessage(dnsErr)
	case errors.As(err, &opErr) && opErr.Op == "dial":
		if opErr.Addr == nil {
			return err.Error()
		}
		return fmt.Sprintf("%s: connection refused", opErr.Addr)
	default:
		return err.Error()
	}
}

// SSHProbe checks that SSH authentication and session establishment work.
type SSHProbe struct {
	ep   monitor.Endpoint
	conf sshConfig
}

func NewSSHProbe(ep monitor.Endpoint) (SSHProbe, error) {
	conf, err := newSSHConfig(ep)
	if err != nil {
		return SSHProbe{}, err
	}

	return SSHProbe{
		ep:   ep,
		conf: conf,
	}, nil
}

func (p SSHProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p SSHProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	st := time.Now()
	sess, err := dialSSH(ctx, p.conf)
	d := time.Since(st)
	sess.Close()

	rec := monitor.NewResult(p.ep.ID, monitor.StatusUp, st, d, "connected and authenticated")
	rec.Extra = sess.Extra()

	if err != nil {
		rec.Status = monitor.StatusDown
		rec.Message = sshErrorToMessage(err)
	}

	return timeoutOr(ctx, rec)
}
