package call

import (
	"context"

	"github.com/raqmi/callagent/internal/stt"
)

// Frame is one inbound message from the caller: either a raw PCM audio
// chunk or a freeform text line (accepted but otherwise unused).
type Frame struct {
	Binary bool
	Data   []byte
	Text   string
}

// CallerConn is the duplex framed channel to one caller. Implementations
// must serialize SendText/SendAudio internally: both session tasks can, in
// principle, write to the connection.
type CallerConn interface {
	ReadFrame() (Frame, error)
	SendText(line string) error
	SendAudio(data []byte) error
	Close() error
}

// Recognizer is one live recognition stream (see internal/stt).
type Recognizer interface {
	PushAudio(frame []byte) error
	Events() <-chan stt.Event
	Close() error
}

// RecognizerDialer opens one recognition stream per session.
type RecognizerDialer interface {
	Dial(ctx context.Context) (Recognizer, error)
}

type RecognizerDialerFunc func(ctx context.Context) (Recognizer, error)

func (f RecognizerDialerFunc) Dial(ctx context.Context) (Recognizer, error) { return f(ctx) }

// Synthesizer turns one text segment into audio container bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
