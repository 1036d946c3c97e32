package read

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/zipview"
	"github.com/nguyengg/zipview/cdscan"
	"github.com/nguyengg/zipview/internal"
)

type Command struct {
	Entry       string        `short:"e" long:"entry" description:"full name of the entry in the archive" required:"yes"`
	Start       int64         `short:"s" long:"start" description:"logical start index; negative counts from the end" default:"0"`
	Length      int64         `short:"n" long:"length" description:"number of bytes to read; 0 or negative reads to the end" default:"0"`
	Output      string        `short:"o" long:"output" description:"write to this file instead of stdout"`
	Timeout     time.Duration `short:"t" long:"timeout" description:"deadline for initialising the entry reader (parsing the header, decoding compressed entries)" default:"30s"`
	ContentType string        `long:"content-type" description:"declared MIME type of the decoded content"`

	Args struct {
		Container string `positional-arg-name:"container" description:"local zip file, http(s) URL, or s3://bucket/key URI" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	ctx = internal.WithPrefixLogger(ctx, internal.Prefix(0, 1, c.Args.Container))
	return c.read(ctx)
}

func (c *Command) read(ctx context.Context) error {
	src, closer, err := internal.OpenSource(ctx, c.Args.Container)
	if err != nil {
		return err
	}
	defer closer.Close()

	entry, err := c.findEntry(ctx, src)
	if err != nil {
		return err
	}

	// initialising the reader can take a while if the entry must be
	// decoded in full (estimate below is a pure guess), so drive a
	// synthetic progress bar while racing against the deadline.
	var r *zipview.EntryReader
	onProgress := zipview.NewBarProgress()
	if c.Output == "" {
		// keep stdout clean for the entry bytes.
		onProgress = zipview.NewLogProgress(internal.MustLogger(ctx), 5*time.Second)
	}

	r, err = zipview.RunWithTimeout(func() (r *zipview.EntryReader, err error) {
		err = zipview.RunWithProgress("unpack", c.Entry, onProgress, 2*time.Second, func() (err error) {
			r, err = zipview.NewEntryReader(ctx, src, entry, zipview.WithContentType(c.ContentType))
			return
		})
		return
	}, c.Timeout)
	if err != nil {
		var te *zipview.TimeoutError
		if errors.As(err, &te) {
			return fmt.Errorf("initialise entry reader error: %w (retry with a longer --timeout)", err)
		}
		return fmt.Errorf("initialise entry reader error: %w", err)
	}

	length := c.Length
	if length <= 0 {
		length = r.Size()
	}

	data, err := r.ReadRange(c.Start, length)
	if err != nil {
		return fmt.Errorf("read range error: %w", err)
	}

	w := os.Stdout
	if c.Output != "" {
		if w, err = os.Create(c.Output); err != nil {
			return fmt.Errorf(`create file "%s" error: %w`, c.Output, err)
		}
		defer w.Close()
	}

	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("write output error: %w", err)
	}

	internal.MustLogger(ctx).Printf(`wrote %s of "%s"`, humanize.IBytes(uint64(len(data))), c.Entry)
	return nil
}

// findEntry scans the container's central directory for the named entry.
func (c *Command) findEntry(ctx context.Context, src zipview.ByteSource) (cdscan.FileHeader, error) {
	_, headers, err := cdscan.Scan(src, src.Size(), func(opts *cdscan.Options) {
		opts.Ctx = ctx
	})
	if err != nil {
		return cdscan.FileHeader{}, err
	}

	for fh, err := range headers {
		if err != nil {
			return cdscan.FileHeader{}, err
		}
		if fh.Name == c.Entry {
			return fh, nil
		}
	}

	return cdscan.FileHeader{}, fmt.Errorf(`no entry "%s" in "%s"`, c.Entry, c.Args.Container)
}
