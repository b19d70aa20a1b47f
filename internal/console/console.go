// Package console implements the line-based shutdown prompt on stdin.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	Prompt      = "Stop to shutdown the server: "
	StopCommand = "stop"
)

// Run prompts on out and reads commands from in until "stop" is entered, in reaches
// EOF or ctx is done. stop is called once, only for the stop command.
func Run(ctx context.Context, in io.Reader, out io.Writer, stop func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	fmt.Fprint(out, Prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			cmd := strings.TrimSpace(line)
			if cmd == StopCommand {
				fmt.Fprintln(out, "Shutting down the server")
				stop()
				return nil
			}
			fmt.Fprintf(out, "Invalid command: %s\n", cmd)
			fmt.Fprint(out, Prompt)
		}
	}
}
