package transport

import (
	"bufio"

	"go.bug.st/serial"

	"github.com/tindervale/motionfw/errors"
)

// SerialPort wraps a real serial device (eg. the USB-to-TTL adapter on the
// controller board) behind the Port interface, the same "open options then
// wrap in a buffered reader" shape as the corpus's other motor-controller
// serial adapters.
type SerialPort struct {
	port   serial.Port
	reader *bufio.Reader
}

// OpenSerial opens name (eg. "/dev/ttyACM0") at baud, 8N1, matching the
// sender protocol's framing.
func OpenSerial(name string, baud int) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.CodeErrorf(errors.TransportFault, errors.TransportError, err)
	}

	return &SerialPort{port: port, reader: bufio.NewReader(port)}, nil
}

func (s *SerialPort) ReadByte() (byte, error) {
	b, err := s.reader.ReadByte()
	if err != nil {
		return 0, errors.CodeErrorf(errors.TransportFault, errors.TransportError, err)
	}
	return b, nil
}

func (s *SerialPort) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, errors.CodeErrorf(errors.TransportFault, errors.TransportError, err)
	}
	return n, nil
}

func (s *SerialPort) Close() error {
	return s.port.Close()
}
