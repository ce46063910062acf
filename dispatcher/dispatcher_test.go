package dispatcher_test

import (
	"testing"

	"github.com/tindervale/motionfw/dispatcher"
	"github.com/tindervale/motionfw/test"
)

func pushString(d *dispatcher.Dispatcher, s string) {
	for i := 0; i < len(s); i++ {
		d.PushByte(s[i])
	}
}

func TestPollLineYieldsOneReadyLine(t *testing.T) {
	d := dispatcher.New()
	pushString(d, "G1 X1 F100\n")

	line, ok := d.PollLine()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, line, "G1 X1 F100")

	_, ok = d.PollLine()
	test.ExpectFailure(t, ok)
}

func TestRealTimeBytesCoalesce(t *testing.T) {
	d := dispatcher.New()
	d.PushByte('?')
	d.PushByte('?')
	d.PushByte('?')

	test.ExpectSuccess(t, d.Flags.TakeStatusRequested())
	test.ExpectFailure(t, d.Flags.TakeStatusRequested())
}

func TestRealTimeBytesNeverQueueBehindLine(t *testing.T) {
	d := dispatcher.New()
	pushString(d, "G1 X1")
	d.PushByte('!')
	pushString(d, " F100\n")

	test.ExpectSuccess(t, d.Flags.TakeFeedHold())

	line, ok := d.PollLine()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, line, "G1 X1 F100")
}

func TestLineOverflowRecordsError(t *testing.T) {
	d := dispatcher.New()
	for i := 0; i < 200; i++ {
		d.PushByte('X')
	}
	d.PushByte('\n')

	_, ok := d.PollLine()
	test.ExpectFailure(t, ok)

	_, ok = d.PollError()
	test.ExpectSuccess(t, ok)
}

func TestResetClearsEverything(t *testing.T) {
	d := dispatcher.New()
	pushString(d, "G1 X1")
	d.PushByte('?')

	d.Reset()

	test.ExpectFailure(t, d.Flags.TakeStatusRequested())
	pushString(d, "\n")
	_, ok := d.PollLine()
	test.ExpectFailure(t, ok)
}
