package voice

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrSourceEnded is returned by Start once the transcript source has hit EOF.
var ErrSourceEnded = errors.New("voice: transcript source ended")

// LineRecognizer adapts a line-oriented transcript stream to the Recognizer
// interface. Each line read is delivered as one final transcript. The
// intended source is a FIFO that an external speech-to-text process (e.g. a
// whisper wrapper) writes recognized utterances to, one per line.
//
// Start and Stop gate delivery rather than the underlying read: a generic
// io.Reader cannot be interrupted mid-Read, so lines arriving while stopped
// are dropped. EOF on the source fires Ended exactly once and is terminal:
// Start afterwards returns ErrSourceEnded, and a new process writing to the
// pipe needs a new LineRecognizer.
type LineRecognizer struct {
	r io.Reader

	listening atomic.Bool
	finished  atomic.Bool
	once      sync.Once

	transcripts chan Transcript
	errs        chan Error
	ended       chan struct{}
}

// NewLineRecognizer creates a recognizer reading transcript lines from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{
		r:           r,
		transcripts: make(chan Transcript, 16),
		errs:        make(chan Error, 4),
		ended:       make(chan struct{}, 1),
	}
}

// RequestPermission always succeeds: permission is the pipe existing at all.
func (l *LineRecognizer) RequestPermission() error {
	return nil
}

// Start begins delivering lines as transcripts. It fails once the source is
// exhausted: there is no session left to start.
func (l *LineRecognizer) Start() error {
	if l.finished.Load() {
		return ErrSourceEnded
	}
	l.listening.Store(true)
	l.once.Do(func() {
		go l.scan()
	})
	return nil
}

// Stop pauses delivery. Lines read while stopped are discarded.
func (l *LineRecognizer) Stop() {
	l.listening.Store(false)
}

// Transcripts delivers one final transcript per line.
func (l *LineRecognizer) Transcripts() <-chan Transcript {
	return l.transcripts
}

// Errors delivers read failures as network errors.
func (l *LineRecognizer) Errors() <-chan Error {
	return l.errs
}

// Ended delivers exactly one value when the source is exhausted. The channel
// is never closed: a closed channel would be ready on every receive, and the
// monitor selects on it in a loop.
func (l *LineRecognizer) Ended() <-chan struct{} {
	return l.ended
}

func (l *LineRecognizer) scan() {
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		if !l.listening.Load() {
			continue
		}
		select {
		case l.transcripts <- Transcript{Text: scanner.Text(), Final: true}:
		default:
			// Consumer is behind; dropping an utterance is preferable to
			// blocking the reader.
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case l.errs <- Error{Kind: ErrNetwork, Err: err}:
		default:
		}
	}
	l.finished.Store(true)
	l.ended <- struct{}{}
}
