package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/model"
)

func testSettings() *model.LessonSettings {
	return &model.LessonSettings{
		TeacherID:          1,
		Allows30Min:        true,
		Allows60Min:        true,
		Price30Min:         3000,
		Price60Min:         5500,
		AdvanceBookingDays: 21,
	}
}

// Понедельник 7 сентября 2026.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func mondayWindow(start, end string) *model.AvailabilityWindow {
	return &model.AvailabilityWindow{
		ID:        1,
		TeacherID: 1,
		DayOfWeek: int(time.Monday),
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
}

func lessonAt(date time.Time, duration int) *model.Lesson {
	return &model.Lesson{
		TeacherID: 1,
		StudentID: 2,
		Date:      date,
		Duration:  duration,
		Status:    model.LessonStatusScheduled,
	}
}

func TestBuildDaySlotsBasicGrid(t *testing.T) {
	now := monday.Add(-24 * time.Hour)

	slots, err := buildDaySlots(monday, []*model.AvailabilityWindow{mondayWindow("09:00", "10:00")}, testSettings(), nil, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[1].Start)
	for _, slot := range slots {
		assert.Equal(t, 30, slot.Duration)
		assert.Equal(t, 3000, slot.Price)
		assert.True(t, slot.Available)
	}
}

func TestBuildDaySlotsSkipsOtherWeekdays(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	slots, err := buildDaySlots(tuesday, []*model.AvailabilityWindow{mondayWindow("09:00", "10:00")}, testSettings(), nil, monday, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestBuildDaySlots60MinLessonBlocksBothHalves(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	lessons := []*model.Lesson{lessonAt(monday.Add(10*time.Hour), 60)}

	slots, err := buildDaySlots(monday, []*model.AvailabilityWindow{mondayWindow("09:00", "11:00")}, testSettings(), lessons, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	assert.True(t, slots[0].Available)  // 09:00
	assert.True(t, slots[1].Available)  // 09:30
	assert.False(t, slots[2].Available) // 10:00 — занят часовым уроком
	assert.False(t, slots[3].Available) // 10:30 — вторая половина того же урока
}

func TestBuildDaySlots30MinLessonLeavesSecondHalf(t *testing.T) {
	now := monday.Add(-24 * time.Hour)
	lessons := []*model.Lesson{lessonAt(monday.Add(10*time.Hour), 30)}

	slots, err := buildDaySlots(monday, []*model.AvailabilityWindow{mondayWindow("10:00", "11:00")}, testSettings(), lessons, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.False(t, slots[0].Available) // 10:00
	assert.True(t, slots[1].Available)  // 10:30 свободен
}

func TestSlotAvailableGracePeriodBoundary(t *testing.T) {
	start := monday.Add(9 * time.Hour)
	end := start.Add(30 * time.Minute)

	// до и на границе льготного часа слот ещё можно забронировать
	assert.True(t, slotAvailable(start, end, nil, start.Add(59*time.Minute)))
	assert.True(t, slotAvailable(start, end, nil, start.Add(60*time.Minute)))

	// строго после границы — нет
	assert.False(t, slotAvailable(start, end, nil, start.Add(61*time.Minute)))
}

func TestSlotPriceFallsBackTo60MinRate(t *testing.T) {
	settings := testSettings()
	assert.Equal(t, 3000, slotPrice(settings))

	settings.Allows30Min = false
	assert.Equal(t, 5500, slotPrice(settings))
}

func TestValidateAvailabilityWindows(t *testing.T) {
	svc := &AvailabilityService{}

	valid := []*model.AvailabilityWindow{
		{TeacherID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{TeacherID: 1, DayOfWeek: 1, StartTime: "14:00", EndTime: "17:00"},
		{TeacherID: 1, DayOfWeek: 3, StartTime: "09:00", EndTime: "17:00"},
	}
	require.NoError(t, svc.ValidateAvailabilityWindows(1, valid))

	tests := []struct {
		name    string
		windows []*model.AvailabilityWindow
	}{
		{"foreign teacher", []*model.AvailabilityWindow{
			{TeacherID: 2, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
		}},
		{"bad day of week", []*model.AvailabilityWindow{
			{TeacherID: 1, DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"},
		}},
		{"bad start format", []*model.AvailabilityWindow{
			{TeacherID: 1, DayOfWeek: 1, StartTime: "9:00", EndTime: "10:00"},
		}},
		{"start not before end", []*model.AvailabilityWindow{
			{TeacherID: 1, DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"},
		}},
		{"overlapping windows", []*model.AvailabilityWindow{
			{TeacherID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
			{TeacherID: 1, DayOfWeek: 1, StartTime: "11:00", EndTime: "13:00"},
		}},
		{"contained window", []*model.AvailabilityWindow{
			{TeacherID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
			{TeacherID: 1, DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateAvailabilityWindows(1, tt.windows)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidateLessonSettings(t *testing.T) {
	svc := &AvailabilityService{}

	require.NoError(t, svc.ValidateLessonSettings(testSettings()))

	tests := []struct {
		name   string
		mutate func(*model.LessonSettings)
	}{
		{"no duration enabled", func(s *model.LessonSettings) { s.Allows30Min = false; s.Allows60Min = false }},
		{"zero price for enabled 30", func(s *model.LessonSettings) { s.Price30Min = 0 }},
		{"negative price for enabled 60", func(s *model.LessonSettings) { s.Price60Min = -100 }},
		{"advance days too small", func(s *model.LessonSettings) { s.AdvanceBookingDays = 0 }},
		{"advance days too large", func(s *model.LessonSettings) { s.AdvanceBookingDays = 91 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			tt.mutate(settings)
			err := svc.ValidateLessonSettings(settings)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidateLessonSettingsDisabledDurationIgnoresPrice(t *testing.T) {
	svc := &AvailabilityService{}
	settings := testSettings()
	settings.Allows60Min = false
	settings.Price60Min = 0
	require.NoError(t, svc.ValidateLessonSettings(settings))
}
