package mocks

import (
	"context"
	"sync"

	"github.com/higress-group/docqa-bot/schema"
)

// Event is one outbound action captured by RecordingSink.
type Event struct {
	Kind    string // text, image, progress
	Text    string
	Caption string
	Image   schema.PageImage
}

// RecordingSink captures everything sent to a chat session.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event

	// Optional failure injection.
	TextErr     error
	ImageErr    map[string]error // keyed by page
	ProgressErr error
}

func (s *RecordingSink) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TextErr != nil {
		return s.TextErr
	}
	s.events = append(s.events, Event{Kind: "text", Text: text})
	return nil
}

func (s *RecordingSink) SendImage(ctx context.Context, img schema.PageImage, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ImageErr[img.Page]; err != nil {
		return err
	}
	s.events = append(s.events, Event{Kind: "image", Caption: caption, Image: img})
	return nil
}

func (s *RecordingSink) SendProgress(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Kind: "progress"})
	return s.ProgressErr
}

// Events returns a snapshot of captured events.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Texts returns captured text messages in order.
func (s *RecordingSink) Texts() []string {
	var out []string
	for _, e := range s.Events() {
		if e.Kind == "text" {
			out = append(out, e.Text)
		}
	}
	return out
}

// Captions returns captions of captured images in order.
func (s *RecordingSink) Captions() []string {
	var out []string
	for _, e := range s.Events() {
		if e.Kind == "image" {
			out = append(out, e.Caption)
		}
	}
	return out
}

// Progress counts progress signals.
func (s *RecordingSink) Progress() int {
	n := 0
	for _, e := range s.Events() {
		if e.Kind == "progress" {
			n++
		}
	}
	return n
}
