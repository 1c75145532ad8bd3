package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lox/omahareader/internal/streets"
)

type SegmentCmd struct {
	File   string `arg:"" optional:"" help:"JSON object of seat -> actions; stdin when omitted or -"`
	Simple bool   `help:"Use the check-counting segmenter"`
}

func (c *SegmentCmd) Run() error {
	return c.run(os.Stdin, os.Stdout)
}

func (c *SegmentCmd) run(stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if c.File != "" && c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var perSeat map[string][]streets.Action
	if err := json.NewDecoder(in).Decode(&perSeat); err != nil {
		return fmt.Errorf("invalid actions: %w", err)
	}

	breakdown := streets.Segment(perSeat)
	if c.Simple {
		breakdown = streets.SegmentSimple(perSeat)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(breakdown)
}
