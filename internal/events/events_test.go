package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisherWritesEventFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := NewLogPublisher(zap.New(core))

	occurred := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	pub.Publish(context.Background(), Event{
		Type:       TypeLessonBooked,
		TeacherID:  1,
		StudentID:  2,
		LessonID:   42,
		OccurredAt: occurred,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(TypeLessonBooked), fields["type"])
	assert.Equal(t, int64(1), fields["teacher_id"])
	assert.Equal(t, int64(42), fields["lesson_id"])
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = NopPublisher{}
	pub.Publish(context.Background(), Event{Type: TypeRecurringSlotCancelled})
}
