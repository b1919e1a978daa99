package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"catalog-sync/internal/concurrency"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type Config struct {
	Host      string
	Port      int
	User      string
	Pass      string
	RemoteDir string

	// KnownHosts defaults to ~/.ssh/known_hosts.
	KnownHosts            string
	InsecureIgnoreHostKey bool

	// Workers bounds parallel uploads over the single connection.
	Workers int
}

var ErrMissingCredentials = errors.New("sftp: missing SFTP_HOST / SFTP_USER / SFTP_PASS")

// Publish uploads every local file into cfg.RemoteDir under its base name.
// Each file is written to a temporary name and renamed into place, so readers
// on the server never see a half-written artifact.
func Publish(ctx context.Context, cfg Config, files []string, logger zerolog.Logger) error {
	if len(files) == 0 {
		return nil
	}
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return ErrMissingCredentials
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("sftp: local file: %w", err)
		}
	}

	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return err
	}

	sshClient, err := dial(ctx, cfg, hostKey)
	if err != nil {
		return err
	}
	defer sshClient.Close()

	cli, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer cli.Close()

	if err := cli.MkdirAll(cfg.RemoteDir); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", cfg.RemoteDir, err)
	}

	return concurrency.ForEach(ctx, files, concurrency.Options{Workers: cfg.Workers}, func(ctx context.Context, _ int, local string) error {
		remote := path.Join(cfg.RemoteDir, filepath.Base(local))
		start := time.Now()
		n, err := upload(cli, local, remote)
		if err != nil {
			return err
		}
		logger.Info().Str("file", remote).Int64("bytes", n).Dur("took", time.Since(start)).Msg("published")
		return nil
	})
}

func upload(cli *sftp.Client, local, remote string) (int64, error) {
	src, err := os.Open(local)
	if err != nil {
		return 0, fmt.Errorf("sftp: open %s: %w", local, err)
	}
	defer src.Close()

	tmp := remote + ".part"
	dst, err := cli.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("sftp: create %s: %w", tmp, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = cli.Remove(tmp)
		return 0, fmt.Errorf("sftp: upload %s: %w", remote, err)
	}

	if err := cli.PosixRename(tmp, remote); err != nil {
		// servers without the posix-rename extension refuse to overwrite
		_ = cli.Remove(remote)
		if err := cli.Rename(tmp, remote); err != nil {
			_ = cli.Remove(tmp)
			return 0, fmt.Errorf("sftp: rename %s: %w", remote, err)
		}
	}
	return n, nil
}

func hostKeyCallback(cfg Config) (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	file := cfg.KnownHosts
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sftp: locate known_hosts: %w", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("sftp: known_hosts %s: %w", file, err)
	}
	return cb, nil
}

func dial(ctx context.Context, cfg Config, hostKey ssh.HostKeyCallback) (*ssh.Client, error) {
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: hostKey,
		Timeout:         20 * time.Second,
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	d := net.Dialer{Timeout: sshCfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sftp: dial %s: %w", addr, err)
	}

	// the handshake itself ignores ctx, so close the socket on cancel
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if !stop() {
		if err == nil {
			_ = c.Close()
		}
		return nil, fmt.Errorf("sftp: handshake %s: %w", addr, ctx.Err())
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sftp: handshake %s: %w", addr, err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}
