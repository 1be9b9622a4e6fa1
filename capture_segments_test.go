package web2pdf

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestCaptureSegmentsSequentialOrder(t *testing.T) {
	t.Parallel()

	page := &fakePage{}
	plans := []segmentPlan{
		{OffsetY: 0, Height: 768},
		{OffsetY: 718, Height: 768},
		{OffsetY: 1436, Height: 564},
	}

	segments, err := captureSegments(context.Background(), page, plans, time.Millisecond, log.New(io.Discard))
	if err != nil {
		t.Fatalf("captureSegments() error = %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}

	wantOrder := []int{0, 718, 1436}
	if !reflect.DeepEqual(page.scrolled, wantOrder) {
		t.Errorf("scroll order = %v, want %v", page.scrolled, wantOrder)
	}
	if !reflect.DeepEqual(page.captured, wantOrder) {
		t.Errorf("capture order = %v, want %v", page.captured, wantOrder)
	}
	for i, seg := range segments {
		if seg.OffsetY != wantOrder[i] {
			t.Errorf("segment %d offset = %d, want %d", i, seg.OffsetY, wantOrder[i])
		}
		if len(seg.Raw) == 0 {
			t.Errorf("segment %d has empty raw bytes", i)
		}
	}
}

func TestCaptureSegmentsSkipsFailedSegment(t *testing.T) {
	t.Parallel()

	page := &fakePage{captureErr: map[int]error{718: errors.New("screenshot failed")}}
	plans := []segmentPlan{
		{OffsetY: 0, Height: 768},
		{OffsetY: 718, Height: 768},
		{OffsetY: 1436, Height: 564},
	}

	segments, err := captureSegments(context.Background(), page, plans, time.Millisecond, log.New(io.Discard))
	if err != nil {
		t.Fatalf("captureSegments() error = %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (failed one skipped)", len(segments))
	}
	if segments[0].OffsetY != 0 || segments[1].OffsetY != 1436 {
		t.Errorf("segment offsets = %d, %d; want 0, 1436", segments[0].OffsetY, segments[1].OffsetY)
	}
}

func TestCaptureSegmentsAllFailed(t *testing.T) {
	t.Parallel()

	page := &fakePage{scrollErr: errors.New("page detached")}
	plans := []segmentPlan{{OffsetY: 0, Height: 768}}

	_, err := captureSegments(context.Background(), page, plans, time.Millisecond, log.New(io.Discard))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("captureSegments() error = %v, want ErrCaptureFailed", err)
	}
}

func TestCaptureSegmentsContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &fakePage{}
	plans := []segmentPlan{{OffsetY: 0, Height: 768}}

	_, err := captureSegments(ctx, page, plans, time.Millisecond, log.New(io.Discard))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("captureSegments() error = %v, want context.Canceled", err)
	}
}
