package list

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/zipview/cdscan"
	"github.com/nguyengg/zipview/internal"
)

type Command struct {
	Args struct {
		Containers []string `positional-arg-name:"container" description:"local zip files, http(s) URLs, or s3://bucket/key URIs" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	n := len(c.Args.Containers)
	for i, container := range c.Args.Containers {
		ctx := internal.WithPrefixLogger(ctx, internal.Prefix(i, n, container))
		if err := c.list(ctx, container); err != nil {
			internal.MustLogger(ctx).Printf("list error: %v", err)
		}
	}

	return nil
}

func (c *Command) list(ctx context.Context, container string) error {
	src, closer, err := internal.OpenSource(ctx, container)
	if err != nil {
		return err
	}
	defer closer.Close()

	eocd, headers, err := cdscan.Scan(src, src.Size(), func(opts *cdscan.Options) {
		opts.Ctx = ctx
	})
	if err != nil {
		return err
	}

	internal.MustLogger(ctx).Printf("%d entries", eocd.CDCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for fh, err := range headers {
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			fh.Modified.Format("2006-01-02 15:04:05"),
			methodName(fh.Method),
			humanize.IBytes(fh.UncompressedSize64),
			fh.Name)
	}

	return w.Flush()
}

func methodName(method uint16) string {
	switch method {
	case cdscan.MethodStore:
		return "store"
	case cdscan.MethodDeflate:
		return "deflate"
	case cdscan.MethodZstd:
		return "zstd"
	case cdscan.MethodXz:
		return "xz"
	default:
		return fmt.Sprintf("method-%d", method)
	}
}
