// s3scp copies a byte stream between a local file (or stdin/stdout) and an S3 object
// addressed by an s3://region/bucket/key[?version=v] locator, using the s3stream adapter:
// ranged reads for downloads, multipart upload for uploads.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/simonbru/s3stream"
	"github.com/simonbru/s3stream/credential"
	s3adapter "github.com/simonbru/s3stream/s3"
)

func main() {
	app := cli.NewApp()
	app.Name = "s3scp"
	app.Usage = "Copies a byte stream between a local file (use - for stdin/stdout) and an s3:// locator"
	app.ArgsUsage = "SOURCE TARGET"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "awsKeyId",
			Usage:  "aws access key id for user",
			EnvVar: "AWS_ACCESS_KEY_ID",
		},
		cli.StringFlag{
			Name:   "awsSecretKey",
			Usage:  "aws secret key for user",
			EnvVar: "AWS_SECRET_ACCESS_KEY",
		},
		cli.StringFlag{
			Name:   "awsSessionToken",
			Usage:  "aws session token",
			EnvVar: "AWS_SESSION_TOKEN",
		},
		cli.StringFlag{
			Name:  "endpoint",
			Usage: "alternate s3-compatible endpoint, e.g. a minio host",
		},
		cli.StringFlag{
			Name:  "part-size",
			Usage: "multipart flush threshold, human form (e.g. 5MiB, 16MB)",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
		},
		cli.IntFlag{
			Name:  "attempts",
			Usage: "retry attempts for transient failures",
		},
	}
	app.Action = func(c *cli.Context) error {
		if err := run(c); err != nil {
			color.Red("s3scp: %v", err)
			return err
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	src, dst := c.Args().Get(0), c.Args().Get(1)
	if src == "" || dst == "" {
		return errors.New("s3scp requires 2 non-empty arguments")
	}

	store, err := newStore(c)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch {
	case isLocator(src) && isLocator(dst):
		return errors.New("copying between two s3 locators is not supported")
	case isLocator(src):
		return download(ctx, store, src, dst)
	case isLocator(dst):
		return upload(ctx, store, src, dst)
	default:
		return errors.New("one of SOURCE or TARGET must be an s3:// locator")
	}
}

func isLocator(arg string) bool {
	return strings.HasPrefix(arg, s3stream.Scheme+"://")
}

func newStore(c *cli.Context) (*s3adapter.Store, error) {
	opts := s3adapter.Options{
		AccessKeyID:     c.String("awsKeyId"),
		SecretAccessKey: c.String("awsSecretKey"),
		SessionToken:    c.String("awsSessionToken"),
		Endpoint:        c.String("endpoint"),
		RequestTimeout:  c.Duration("timeout"),
		RetryAttempts:   c.Int("attempts"),
	}
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		// fall back to the conventional lookup order: env, shared file, instance role
		opts.Credentials = credential.NewChain()
	}

	if ps := c.String("part-size"); ps != "" {
		size, err := units.RAMInBytes(ps)
		if err != nil {
			return nil, fmt.Errorf("part-size: %w", err)
		}
		opts.PartSize = size
	}

	return s3adapter.New(s3adapter.WithOptions(opts)), nil
}

func download(ctx context.Context, store *s3adapter.Store, src, dst string) error {
	loc, err := s3stream.Parse(src)
	if err != nil {
		return err
	}

	out, closeOut, err := openTarget(dst)
	if err != nil {
		return err
	}

	start := time.Now()
	source, err := store.OpenReader(ctx, loc)
	if err != nil {
		return err
	}
	defer source.Close()

	n, err := io.Copy(out, source)
	if err != nil {
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	color.Green("downloaded %s (%s in %s)", loc, units.HumanSize(float64(n)), time.Since(start).Round(time.Millisecond))
	return nil
}

func upload(ctx context.Context, store *s3adapter.Store, src, dst string) error {
	loc, err := s3stream.Parse(dst)
	if err != nil {
		return err
	}

	in, closeIn, err := openSource(src)
	if err != nil {
		return err
	}
	defer closeIn()

	start := time.Now()
	sink, err := store.OpenWriter(ctx, loc)
	if err != nil {
		return err
	}

	if _, err := io.Copy(sink, in); err != nil {
		// the copy failed mid-stream; release the upload before reporting
		if abortErr := sink.Abort(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	color.Green("uploaded %s (%s in %s)", loc, units.HumanSize(float64(sink.BytesWritten())), time.Since(start).Round(time.Millisecond))
	return nil
}

func openSource(arg string) (io.Reader, func() error, error) {
	if arg == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func openTarget(arg string) (io.Writer, func() error, error) {
	if arg == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(arg)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
