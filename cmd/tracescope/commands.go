package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bft-labs/tracescope/internal/adapters/tracefile"
	"github.com/bft-labs/tracescope/pkg/tracescope"
)

func newFramesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "frames <trace>",
		Short: "List the frames of a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer c.close()

			renderFrames(cmd.OutOrStdout(), c.api, c.frames)
			return nil
		},
	}
}

func renderFrames(w io.Writer, api tracescope.API, frames []tracescope.FrameInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"frame", "calls", "last call", "loaded", "binary data"})

	var total uint64
	for _, f := range frames {
		total += uint64(f.CallCount)
		last := "-"
		if f.HasLastCall {
			last = strconv.FormatUint(f.LastCall, 10)
		}
		data := "-"
		if f.Loaded {
			data = humanize.Bytes(f.BinaryDataSize)
		}
		t.AppendRow(table.Row{f.Number, f.CallCount, last, f.Loaded, data})
	}
	t.AppendFooter(table.Row{"total", humanize.Comma(int64(total)), "", "", ""})
	t.Render()

	fmt.Fprintf(w, "frames: %d\napi: %s\n", len(frames), api)
}

func newDumpCmd(o *rootOptions) *cobra.Command {
	var showHelp bool
	cmd := &cobra.Command{
		Use:   "dump <trace> <frame>",
		Short: "Print the calls of one frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseFrame(args[1])
			if err != nil {
				return err
			}
			c, err := openClient(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer c.close()

			calls, err := c.frameCalls(cmd.Context(), n)
			if err != nil {
				return err
			}
			renderCalls(cmd.OutOrStdout(), calls, showHelp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHelp, "help-urls", false, "include the help URL of each call")
	return cmd
}

func renderCalls(w io.Writer, calls []*tracescope.APICall, showHelp bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"#", "call", "blob"}
	if showHelp {
		header = append(header, "help")
	}
	t.AppendHeader(header)

	var data uint64
	for _, c := range calls {
		blob := ""
		if size := c.BinaryDataSize(); size > 0 {
			data += size
			blob = humanize.Bytes(size)
		}
		row := table.Row{c.Number, c.String(), blob}
		if showHelp {
			row = append(row, c.HelpURL)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%s calls", humanize.Comma(int64(len(calls)))), humanize.Bytes(data)})
	t.Render()
}

func newSearchCmd(o *rootOptions) *cobra.Command {
	var (
		prev       bool
		ignoreCase bool
		after      uint64
	)
	cmd := &cobra.Command{
		Use:   "search <trace> <frame> <text>",
		Short: "Find the next (or previous) call containing text",
		Long: strings.TrimSpace(`
Search call text starting at a frame. A forward search covers the given frame
and every later frame; --prev searches the given frame and every earlier one.
--after anchors the search at a call: forward searches skip it and everything
before it, backward searches skip it and everything after it.`),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseFrame(args[1])
			if err != nil {
				return err
			}
			dir := tracescope.SearchNext
			if prev {
				dir = tracescope.SearchPrev
			}
			req := tracescope.NewSearchRequest(n, args[2], dir)
			req.CaseSensitive = !ignoreCase
			if cmd.Flags().Changed("after") {
				req.From = tracescope.At(after)
			}

			c, err := openClient(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer c.close()

			res, err := c.search(cmd.Context(), req)
			if err != nil {
				return err
			}
			switch res.Status {
			case tracescope.SearchFound:
				printCall(cmd.OutOrStdout(), "found", res.Call)
			case tracescope.SearchFailed:
				return fmt.Errorf("search failed: %w", res.Err)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prev, "prev", false, "search backwards")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "match case-insensitively")
	cmd.Flags().Uint64Var(&after, "after", 0, "anchor the search at this call number")
	return cmd
}

func (c *client) search(ctx context.Context, req tracescope.SearchRequest) (tracescope.SearchResult, error) {
	if err := c.viewer.Search(req); err != nil {
		return tracescope.SearchResult{}, err
	}
	ev, err := c.await(ctx, func(ev tracescope.Event) bool {
		return ev.Kind == tracescope.EventSearchResult && ev.Request.ID == req.ID
	})
	if err != nil {
		return tracescope.SearchResult{}, err
	}
	return ev.Result, nil
}

func newLocateCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Locate a frame boundary or a call by number",
	}

	frameLocator := func(use, short string, submit func(*tracescope.Viewer, uint32) error, k tracescope.EventKind) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <trace> <frame>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseFrame(args[1])
				if err != nil {
					return err
				}
				return locate(cmd, o, args[0], func(v *tracescope.Viewer) error { return submit(v, n) }, k)
			},
		}
	}

	cmd.AddCommand(
		frameLocator("frame-start", "Print the first call of a frame", (*tracescope.Viewer).LocateFrameStart, tracescope.EventFrameStartLocated),
		frameLocator("frame-end", "Print the last call of a frame", (*tracescope.Viewer).LocateFrameEnd, tracescope.EventFrameEndLocated),
		&cobra.Command{
			Use:   "call <trace> <number>",
			Short: "Print a call and its frame",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				number, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("call number %q: %w", args[1], err)
				}
				return locate(cmd, o, args[0], func(v *tracescope.Viewer) error { return v.LocateCall(number) }, tracescope.EventCallLocated)
			},
		},
	)
	return cmd
}

func locate(cmd *cobra.Command, o *rootOptions, path string, submit func(*tracescope.Viewer) error, k tracescope.EventKind) error {
	c, err := openClient(cmd.Context(), o, path)
	if err != nil {
		return err
	}
	defer c.close()

	if err := submit(c.viewer); err != nil {
		return err
	}
	ev, err := c.await(cmd.Context(), kind(k))
	if err != nil {
		return err
	}
	if ev.Call == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "frame %d is empty\n", ev.Frame)
		return nil
	}
	printCall(cmd.OutOrStdout(), "located", ev.Call)
	return nil
}

func printCall(w io.Writer, prefix string, c *tracescope.APICall) {
	fmt.Fprintf(w, "%s #%d in frame %d: %s\n", prefix, c.Number, c.Frame, c.String())
	if c.HelpURL != "" {
		fmt.Fprintf(w, "help: %s\n", c.HelpURL)
	}
}

func newPackCmd(o *rootOptions) *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "pack <src> <dst>",
		Short: "Rewrite a trace, optionally gzip-compressed",
		Long: strings.TrimSpace(`
Copy every call of src into dst. The output is compressed when --gzip is set
or dst ends in .gz. Compressed traces are smaller but are decoded eagerly on
open.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			compress = compress || strings.HasSuffix(dst, ".gz")

			calls, err := packTrace(src, dst, compress)
			if err != nil {
				return err
			}
			o.log.Debug().Str("src", src).Str("dst", dst).Uint64("calls", calls).Msg("trace packed")

			fmt.Fprintf(cmd.OutOrStdout(), "packed %s calls: %s -> %s\n",
				humanize.Comma(int64(calls)), fileSize(src), fileSize(dst))
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "gzip", false, "gzip-compress the output")
	return cmd
}

func packTrace(src, dst string, compress bool) (uint64, error) {
	r := tracefile.NewReader()
	if err := r.Open(src); err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	w, err := tracefile.Create(dst, compress)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	var n uint64
	for {
		c, err := r.DecodeNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = w.Close()
			return n, err
		}
		if err := w.Write(c); err != nil {
			_ = w.Close()
			return n, fmt.Errorf("write %s: %w", dst, err)
		}
		n++
	}
	return n, w.Close()
}

func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(st.Size()))
}

func parseFrame(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("frame number %q: %w", s, err)
	}
	return uint32(n), nil
}
