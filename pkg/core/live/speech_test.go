package live

import (
	"reflect"
	"testing"
)

func TestSpeechBuffer_PunctuationRelease(t *testing.T) {
	b := NewSpeechBuffer()
	if got := b.Add("Hello"); got != "" {
		t.Fatalf("premature chunk: %q", got)
	}
	if got := b.Add(" world."); got != "Hello world." {
		t.Fatalf("chunk = %q", got)
	}
	if got := b.Flush(); got != "" {
		t.Fatalf("flush = %q, want empty", got)
	}
}

func TestSpeechBuffer_WordThresholdRelease(t *testing.T) {
	b := NewSpeechBuffer()
	for _, d := range []string{"one", " two", " three", " four", " five"} {
		if got := b.Add(d); got != "" {
			t.Fatalf("premature chunk: %q", got)
		}
	}
	if got := b.Add(" six"); got != "one two three four five" {
		t.Fatalf("chunk = %q", got)
	}
	if got := b.Flush(); got != "six" {
		t.Fatalf("flush = %q", got)
	}
}

func TestSpeechBuffer_Reset(t *testing.T) {
	b := NewSpeechBuffer()
	b.Add("half a sentence")
	b.Reset()
	if got := b.Flush(); got != "" {
		t.Fatalf("flush after reset = %q", got)
	}
}

func TestSplitSpeech(t *testing.T) {
	got := SplitSpeech("I led the migration. It took three months, start to finish.")
	want := []string{
		"I led the migration.",
		"It took three months,",
		"start to finish.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunks = %q, want %q", got, want)
	}
}

func TestSplitSpeech_Empty(t *testing.T) {
	if got := SplitSpeech(""); got != nil {
		t.Fatalf("chunks = %q, want nil", got)
	}
}
