package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/densealert"
)

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "feed CSV lines k1,...,kN,delta into a detector",
		ArgsUsage: "FILE (or - for stdin)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "order", Aliases: []string{"n"}, Required: true, Usage: "number of modes"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every block change"},
			&cli.BoolFlag{Name: "replay-deletes", Usage: "delete every inserted line again after the input"},
		},
		Action: runStream,
	}
}

func windowCommand() *cli.Command {
	return &cli.Command{
		Name:      "window",
		Usage:     "feed CSV lines ts,k1,...,kN,weight into a sliding window",
		ArgsUsage: "FILE (or - for stdin)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "order", Aliases: []string{"n"}, Required: true, Usage: "number of modes"},
			&cli.DurationFlag{Name: "span", Required: true, Usage: "window length, e.g. 1h"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every block change"},
		},
		Action: runWindow,
	}
}

func runStream(c *cli.Context) error {
	order := c.Int("order")
	opts, cleanup, err := setup(c, c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := densealert.New(order, opts...)
	if err != nil {
		return err
	}

	var replay []densealert.Tuple
	err = readLines(c, func(line int, fields []string) error {
		t, err := parseDelta(fields, order)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		switch {
		case t.Weight > 0:
			if err := d.Insert(c.Context, t); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if c.Bool("replay-deletes") {
				replay = append(replay, t)
			}
		case t.Weight < 0:
			t.Weight = -t.Weight
			if _, err := d.Delete(c.Context, t); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, t := range replay {
		if _, err := d.Delete(c.Context, t); err != nil {
			return fmt.Errorf("replay delete %v: %w", t.Keys, err)
		}
	}
	return printResult(c, d)
}

func runWindow(c *cli.Context) error {
	order := c.Int("order")
	opts, cleanup, err := setup(c, c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := densealert.NewWindow(order, c.Duration("span"), opts...)
	if err != nil {
		return err
	}

	err = readLines(c, func(line int, fields []string) error {
		ts, t, err := parseTimed(fields, order)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := w.Insert(c.Context, t, ts); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := printResult(c, w.Detector); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "pending %d\n", w.Pending())
	return err
}

func printResult(c *cli.Context, d *densealert.Detector) error {
	_, err := fmt.Fprintf(c.App.Writer, "density %.6f\nblock %s\n", d.Density(), formatBlock(d.Block()))
	return err
}

// readLines calls fn for every CSV record of the command's file argument.
// Blank lines and lines starting with # are skipped.
func readLines(c *cli.Context, fn func(line int, fields []string) error) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one FILE argument")
	}

	var in io.Reader
	if name := c.Args().First(); name == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	r.TrimLeadingSpace = true
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := r.FieldPos(0)
		if err := fn(line, fields); err != nil {
			return err
		}
	}
}

// parseDelta parses k1,...,kN,delta.
func parseDelta(fields []string, order int) (densealert.Tuple, error) {
	if len(fields) != order+1 {
		return densealert.Tuple{}, fmt.Errorf("expected %d fields, got %d", order+1, len(fields))
	}
	w, err := strconv.ParseInt(strings.TrimSpace(fields[order]), 10, 64)
	if err != nil {
		return densealert.Tuple{}, fmt.Errorf("invalid weight: %w", err)
	}
	keys := make([]string, order)
	copy(keys, fields[:order])
	return densealert.Tuple{Keys: keys, Weight: w}, nil
}

// parseTimed parses ts,k1,...,kN,weight with ts in unix seconds.
func parseTimed(fields []string, order int) (time.Time, densealert.Tuple, error) {
	if len(fields) != order+2 {
		return time.Time{}, densealert.Tuple{}, fmt.Errorf("expected %d fields, got %d", order+2, len(fields))
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return time.Time{}, densealert.Tuple{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	t, err := parseDelta(fields[1:], order)
	if err != nil {
		return time.Time{}, densealert.Tuple{}, err
	}
	if t.Weight < 0 {
		return time.Time{}, densealert.Tuple{}, errors.New("window weights must not be negative")
	}
	return time.Unix(sec, 0), t, nil
}
