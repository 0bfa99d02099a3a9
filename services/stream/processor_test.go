// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/inject"
)

// recordingSink collects tag mismatches for assertions.
type recordingSink struct {
	mismatches [][2]int64
}

func (r *recordingSink) TagMismatch(openID, closeID int64) {
	r.mismatches = append(r.mismatches, [2]int64{openID, closeID})
}

func quietOptions() (Options, *recordingSink) {
	sink := &recordingSink{}
	return Options{
		Logger:      logging.New(logging.Config{Quiet: true}),
		Diagnostics: sink,
	}, sink
}

func newTestProcessor(t *testing.T) (*Processor, *inject.Recorder, *recordingSink) {
	t.Helper()
	rec := &inject.Recorder{}
	opts, sink := quietOptions()
	return NewProcessor(rec, opts), rec, sink
}

func TestOutOfOrderArrivalConvergesInOnePass(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<30>third </30><10>first </10><20>second </20>"))

	assert.Equal(t, "first second third ", p.Realized())
	assert.Equal(t, "first second third ", rec.Surface())
	// One pass: a single insert, no delete.
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, inject.Op{Kind: "emit", Text: "first second third "}, rec.Ops[0])
}

func TestReplaceThenDelete(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(map[int64]string{10: "The ", 20: "quick "})
	rec.Seed("The quick ")

	require.NoError(t, p.ProcessChunk("<20>fast </20>"))
	require.Len(t, rec.Ops, 2)
	assert.Equal(t, inject.Op{Kind: "bksp", Count: 6}, rec.Ops[0])
	assert.Equal(t, inject.Op{Kind: "emit", Text: "fast "}, rec.Ops[1])
	assert.Equal(t, "The fast ", p.Realized())
	assert.Equal(t, "The fast ", rec.Surface())

	rec.Ops = nil
	require.NoError(t, p.ProcessChunk("<20></20>"))
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, inject.Op{Kind: "bksp", Count: 5}, rec.Ops[0])
	assert.Equal(t, "The ", p.Realized())
	assert.Equal(t, "The ", rec.Surface())
}

func TestResetIssuesNoOperations(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(map[int64]string{10: "seed ", 20: "text"})

	assert.Empty(t, rec.Ops)
	assert.Equal(t, "seed text", p.Realized())
}

func TestEntityDecoding(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>AT&amp;T Corporation </10>"))
	assert.Equal(t, "AT&T Corporation ", p.Realized())
	assert.Equal(t, "AT&T Corporation ", rec.Surface())

	require.NoError(t, p.ProcessChunk("<20>a &lt; b &gt; c</20>"))
	assert.Equal(t, "AT&T Corporation a < b > c", p.Realized())
}

func TestDecodedAngleBracketsAreNotTags(t *testing.T) {
	p, _, sink := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>&lt;20&gt;not a tag&lt;/20&gt;</10>"))
	assert.Equal(t, "<20>not a tag</20>", p.Realized())
	assert.Empty(t, sink.mismatches)
}

func TestMismatchToleratedWithDiagnostic(t *testing.T) {
	p, rec, sink := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>Update the post-write guidance </10><20>to indicate </25>"))

	assert.Equal(t, "Update the post-write guidance to indicate ", p.Realized())
	assert.Equal(t, "Update the post-write guidance to indicate ", rec.Surface())
	require.Len(t, sink.mismatches, 1)
	assert.Equal(t, [2]int64{20, 25}, sink.mismatches[0])
}

func TestLargeIdentifiers(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(map[int64]string{1000: "First ", 2000: "Second "})
	rec.Seed("First Second ")

	require.NoError(t, p.ProcessChunk("<2000>Last </2000>"))

	require.Len(t, rec.Ops, 2)
	assert.Equal(t, inject.Op{Kind: "bksp", Count: 7}, rec.Ops[0])
	assert.Equal(t, inject.Op{Kind: "emit", Text: "Last "}, rec.Ops[1])
	assert.Equal(t, "First Last ", rec.Surface())
}

func TestAppendOnlyAfterEndStreamEmitsWithoutDelete(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>Hello </10><20>world </20>"))
	require.NoError(t, p.EndStream())
	assert.Equal(t, "Hello world ", p.Realized())

	rec.Ops = nil
	require.NoError(t, p.ProcessChunk("<30>How </30><40>are </40><50>you?</50>"))
	require.NoError(t, p.EndStream())

	// Pure append: the shared prefix is untouched, so the engine must emit
	// the trailing text with no preceding delete. Emission is never gated
	// on a deletion having occurred.
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, inject.Op{Kind: "emit", Text: "How are you?"}, rec.Ops[0])
	assert.Equal(t, "Hello world How are you?", rec.Surface())
}

func TestPureAppendWithinOneStream(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>alpha </10>"))
	rec.Ops = nil

	require.NoError(t, p.ProcessChunk("<20>beta</20>"))
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, inject.Op{Kind: "emit", Text: "beta"}, rec.Ops[0])
}

func TestIdempotence(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>same </10><20>text</20>"))
	opsAfterFirst := len(rec.Ops)

	// Same update again: the document is unchanged, so the second pass
	// must issue zero operations.
	require.NoError(t, p.ProcessChunk("<10>same </10><20>text</20>"))
	assert.Len(t, rec.Ops, opsAfterFirst)

	// An empty chunk reconciles too, and must also be silent.
	require.NoError(t, p.ProcessChunk(""))
	assert.Len(t, rec.Ops, opsAfterFirst)
}

func TestFragmentedDeliveryAcrossChunks(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<1"))
	assert.Empty(t, rec.Ops)
	require.NoError(t, p.ProcessChunk("0>Hel"))
	assert.Empty(t, rec.Ops)
	require.NoError(t, p.ProcessChunk("lo </1"))
	assert.Empty(t, rec.Ops)
	require.NoError(t, p.ProcessChunk("0><20>world</20>"))

	assert.Equal(t, "Hello world", p.Realized())
	assert.Equal(t, "Hello world", rec.Surface())
}

func TestMalformedFragmentDiscardedAtEndStream(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>kept </10><garbage><20>unterminated"))
	require.NoError(t, p.EndStream())

	// The unterminated tail never appears; no error either.
	assert.Equal(t, "kept ", p.Realized())
	assert.Equal(t, "kept ", rec.Surface())
}

func TestPartialCloseMarkerCompletesLater(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>flushed</10"))
	assert.Empty(t, rec.Ops)

	require.NoError(t, p.ProcessChunk(">"))
	assert.Equal(t, "flushed", p.Realized())
}

func TestDoubleEndStreamIsUsageError(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	p.Reset(nil)

	require.NoError(t, p.ProcessChunk("<10>x</10>"))
	require.NoError(t, p.EndStream())
	assert.True(t, p.Closed())

	err := p.EndStream()
	assert.ErrorIs(t, err, ErrStreamClosed)
	// State untouched.
	assert.Equal(t, "x", p.Realized())
}

func TestResetRearmsClosedProcessor(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(nil)
	require.NoError(t, p.ProcessChunk("<10>old</10>"))
	require.NoError(t, p.EndStream())

	p.Reset(nil)
	rec.Reset()
	assert.False(t, p.Closed())

	require.NoError(t, p.ProcessChunk("<10>new</10>"))
	assert.Equal(t, "new", p.Realized())
	assert.Equal(t, "new", rec.Surface())
}

func TestDeepEditEmitsSingleMinimalPair(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(map[int64]string{
		10: "The quick ",
		20: "brown fox ",
		30: "jumps over ",
		40: "the lazy dog",
	})
	rec.Seed("The quick brown fox jumps over the lazy dog")

	// Edit deep inside segment 20; segments 30 and 40 follow the divergence
	// point but are unchanged, and must still cost only one delete+insert.
	require.NoError(t, p.ProcessChunk("<20>red fox </20>"))

	old := "The quick brown fox jumps over the lazy dog"
	// Common prefix is "The quick " plus nothing of "brown"/"red".
	require.Len(t, rec.Ops, 2)
	assert.Equal(t, inject.Op{Kind: "bksp", Count: len(old) - len("The quick ")}, rec.Ops[0])
	assert.Equal(t, inject.Op{Kind: "emit", Text: "red fox jumps over the lazy dog"}, rec.Ops[1])
	assert.Equal(t, "The quick red fox jumps over the lazy dog", rec.Surface())
}

func TestMultiByteCharactersCountAsSingleCharacters(t *testing.T) {
	p, rec, _ := newTestProcessor(t)
	p.Reset(map[int64]string{10: "naïve café"})
	rec.Seed("naïve café")

	require.NoError(t, p.ProcessChunk("<10>naïve cafés</10>"))

	require.Len(t, rec.Ops, 1)
	assert.Equal(t, inject.Op{Kind: "emit", Text: "s"}, rec.Ops[0])

	rec.Ops = nil
	require.NoError(t, p.ProcessChunk("<10>naïve</10>"))
	require.Len(t, rec.Ops, 1)
	// " cafés" is six characters, not its byte length.
	assert.Equal(t, inject.Op{Kind: "bksp", Count: 6}, rec.Ops[0])
	assert.Equal(t, "naïve", rec.Surface())
}

func TestIndependentProcessorsShareNothing(t *testing.T) {
	recA := &inject.Recorder{}
	recB := &inject.Recorder{}
	optsA, _ := quietOptions()
	optsB, _ := quietOptions()
	a := NewProcessor(recA, optsA)
	b := NewProcessor(recB, optsB)
	a.Reset(nil)
	b.Reset(nil)

	require.NoError(t, a.ProcessChunk("<10>stream A</10>"))
	require.NoError(t, b.ProcessChunk("<10>stream B</10>"))

	assert.Equal(t, "stream A", a.Realized())
	assert.Equal(t, "stream B", b.Realized())
	assert.Equal(t, "stream A", recA.Surface())
	assert.Equal(t, "stream B", recB.Surface())
}
