package main

import (
	"bufio"
	"os"
)

// stdioPort adapts the process's own stdin/stdout to transport.Port, for a
// local interactive session (no -tty device, no -replay file).
type stdioPort struct {
	in  *bufio.Reader
	out *os.File
}

func newStdioPort() *stdioPort {
	return &stdioPort{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (s *stdioPort) ReadByte() (byte, error) { return s.in.ReadByte() }

func (s *stdioPort) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *stdioPort) Close() error { return nil }
