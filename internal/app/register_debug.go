// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// RegisterSource dumps the registers of the register-level chips on a board.
type RegisterSource interface {
	Chips() []string
	DumpRegisters() (map[string]string, error)
}

var (
	chipColor    = color.New(color.FgCyan, color.Bold)
	changedColor = color.New(color.FgYellow)
)

// registerDebug prints register dumps and highlights the lines that changed
// since the previous dump.
type registerDebug struct {
	src  RegisterSource
	out  io.Writer
	prev map[string]string
}

func (r *registerDebug) dump() error {
	dumps, err := r.src.DumpRegisters()
	for _, chip := range r.src.Chips() {
		text, ok := dumps[chip]
		if !ok {
			continue
		}
		chipColor.Fprint(r.out, "== "+chip+" ==")
		fmt.Fprintln(r.out)
		old := strings.Split(r.prev[chip], "\n")
		for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
			if r.prev != nil && (i >= len(old) || old[i] != line) {
				changedColor.Fprintln(r.out, line)
				continue
			}
			fmt.Fprintln(r.out, line)
		}
	}
	r.prev = dumps
	return err
}

// RunRegisterDebug prints the board's registers once, or every interval
// until ctx is done when every is positive.
func RunRegisterDebug(ctx context.Context, src RegisterSource, out io.Writer, every time.Duration) error {
	if len(src.Chips()) == 0 {
		fmt.Fprintln(out, "no register-level chips on this board")
		return nil
	}
	r := &registerDebug{src: src, out: out}
	if err := r.dump(); err != nil || every <= 0 {
		return err
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fmt.Fprintln(out)
			if err := r.dump(); err != nil {
				return err
			}
		}
	}
}
