package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
)

func gridFor(t *testing.T, window *model.AvailabilityWindow, lessons []*model.Lesson, now time.Time) []*model.TimeSlot {
	t.Helper()
	slots, err := buildDaySlots(monday, []*model.AvailabilityWindow{window}, testSettings(), lessons, now, time.UTC)
	require.NoError(t, err)
	return slots
}

func TestCheckDuration(t *testing.T) {
	settings := testSettings()

	require.NoError(t, checkDuration(settings, 30))
	require.NoError(t, checkDuration(settings, 60))

	err := checkDuration(settings, 45)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	settings.Allows60Min = false
	err = checkDuration(settings, 60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "60-minute lessons are not enabled")
}

func TestCheckBookingWindowPastDate(t *testing.T) {
	now := monday.Add(12 * time.Hour)
	req := &model.BookingRequest{Date: now.Add(-time.Second), Duration: 30}

	err := checkBookingWindow(req, testSettings(), now)
	require.Error(t, err)
	assert.Equal(t, "Cannot book lessons in the past", err.Error())

	// дата, равная текущему моменту, тоже считается прошлым
	req.Date = now
	err = checkBookingWindow(req, testSettings(), now)
	require.Error(t, err)
	assert.Equal(t, "Cannot book lessons in the past", err.Error())
}

func TestCheckBookingWindowAdvanceLimit(t *testing.T) {
	now := monday
	settings := testSettings() // 21 день вперёд

	req := &model.BookingRequest{Date: now.AddDate(0, 0, 21), Duration: 30}
	require.NoError(t, checkBookingWindow(req, settings, now))

	req.Date = now.AddDate(0, 0, 22)
	err := checkBookingWindow(req, settings, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21 days in advance")
}

func TestCheckBookingWindowRecurringSkipsAdvanceLimit(t *testing.T) {
	now := monday
	req := &model.BookingRequest{
		Date:        now.AddDate(0, 0, 60), // далеко за окном записи
		Duration:    30,
		IsRecurring: true,
	}
	require.NoError(t, checkBookingWindow(req, testSettings(), now))
}

func TestCheckSlotAvailability30Min(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	slots := gridFor(t, mondayWindow("09:00", "10:00"), nil, now)

	require.NoError(t, checkSlotAvailability(slots, monday.Add(9*time.Hour), 30))

	// вне сетки
	err := checkSlotAvailability(slots, monday.Add(8*time.Hour), 30)
	require.Error(t, err)
	assert.Equal(t, "Selected time slot is not available", err.Error())

	// не на границе ячейки
	err = checkSlotAvailability(slots, monday.Add(9*time.Hour+15*time.Minute), 30)
	require.Error(t, err)
}

func TestCheckSlotAvailability60MinNeedsConsecutiveHalves(t *testing.T) {
	now := monday.Add(-24 * time.Hour)

	// свободное окно 09:00-10:00: час в 09:00 помещается
	slots := gridFor(t, mondayWindow("09:00", "10:00"), nil, now)
	require.NoError(t, checkSlotAvailability(slots, monday.Add(9*time.Hour), 60))

	// вторая половина занята получасовым уроком
	busy := []*model.Lesson{lessonAt(monday.Add(9*time.Hour+30*time.Minute), 30)}
	slots = gridFor(t, mondayWindow("09:00", "10:00"), busy, now)
	err := checkSlotAvailability(slots, monday.Add(9*time.Hour), 60)
	require.Error(t, err)
	assert.Equal(t, "Both consecutive time slots must be available for a 60-minute lesson", err.Error())

	// окно заканчивается в 09:30: второй ячейки просто нет
	slots = gridFor(t, mondayWindow("09:00", "09:30"), nil, now)
	err = checkSlotAvailability(slots, monday.Add(9*time.Hour), 60)
	require.Error(t, err)
}

// Окно Пн 09:00-10:00, часовой урок в 09:00 занимает обе ячейки,
// после чего ни 09:00, ни 09:30 недоступны.
func TestScenarioHourLessonConsumesBothSlots(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	window := mondayWindow("09:00", "10:00")

	before := gridFor(t, window, nil, now)
	require.Len(t, before, 2)
	assert.True(t, before[0].Available)
	assert.True(t, before[1].Available)
	require.NoError(t, checkSlotAvailability(before, monday.Add(9*time.Hour), 60))

	booked := []*model.Lesson{lessonAt(monday.Add(9*time.Hour), 60)}
	after := gridFor(t, window, booked, now)
	require.Len(t, after, 2)
	assert.False(t, after[0].Available)
	assert.False(t, after[1].Available)

	assert.Error(t, checkSlotAvailability(after, monday.Add(9*time.Hour), 30))
	assert.Error(t, checkSlotAvailability(after, monday.Add(9*time.Hour+30*time.Minute), 30))
}

func TestCheckCancellableBoundary(t *testing.T) {
	now := monday.Add(12 * time.Hour)

	tests := []struct {
		name    string
		date    time.Time
		wantErr string
	}{
		{name: "starts in one second", date: now.Add(time.Second)},
		{name: "started one second ago", date: now.Add(-time.Second), wantErr: "Cannot cancel lessons that have already started"},
		{name: "starts exactly now", date: now, wantErr: "Cannot cancel lessons that have already started"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson := lessonAt(tt.date, 30)
			err := checkCancellable(lesson, lesson.StudentID, now)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestCheckCancellablePermissionAndStatus(t *testing.T) {
	now := monday
	lesson := lessonAt(now.Add(time.Hour), 30)

	// отменять может и студент, и учитель, но никто третий
	require.NoError(t, checkCancellable(lesson, lesson.StudentID, now))
	require.NoError(t, checkCancellable(lesson, lesson.TeacherID, now))

	err := checkCancellable(lesson, 99, now)
	require.Error(t, err)
	assert.Equal(t, "No permission to cancel this lesson", err.Error())

	lesson.Status = model.LessonStatusCancelled
	err = checkCancellable(lesson, lesson.StudentID, now)
	require.Error(t, err)
	assert.Equal(t, "Lesson is already cancelled", err.Error())
}

func TestNormalizeRequestLeavesInputUntouched(t *testing.T) {
	original := &model.BookingRequest{
		TeacherID: 1,
		StudentID: 2,
		Date:      monday.Add(9*time.Hour + 42*time.Second),
		Duration:  30,
		Timezone:  "UTC",
	}

	normalized := normalizeRequest(original)
	normalized.IsRecurring = true

	assert.Equal(t, monday.Add(9*time.Hour), normalized.Date)
	assert.Equal(t, monday.Add(9*time.Hour+42*time.Second), original.Date)
	assert.False(t, original.IsRecurring)
}

func TestFindSlotMatchesExactStart(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	slots := gridFor(t, mondayWindow("09:00", "10:00"), nil, now)

	assert.NotNil(t, findSlot(slots, monday.Add(9*time.Hour)))
	assert.Nil(t, findSlot(slots, monday.Add(10*time.Hour)))

	// один и тот же момент в другой таймзоне — всё ещё совпадение
	loc := time.FixedZone("UTC+2", 2*3600)
	assert.NotNil(t, findSlot(slots, monday.Add(9*time.Hour).In(loc)))
}
