package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/contacts-backend/internal/models"
)

func bday(y int, m time.Month, d int) *models.Contact {
	return &models.Contact{FirstName: models.NewDate(y, m, d).String(), Birthday: models.NewDate(y, m, d)}
}

func names(cs []*models.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.FirstName
	}
	return out
}

func TestUpcoming_WindowIsInclusive(t *testing.T) {
	today := models.NewDate(2025, time.June, 10)
	contacts := []*models.Contact{
		bday(1990, time.June, 9),  // yesterday
		bday(1990, time.June, 10), // today
		bday(1985, time.June, 17), // today + 7
		bday(1985, time.June, 18), // today + 8
		bday(2000, time.June, 12),
	}

	got := upcoming(contacts, today, BirthdayWindow)
	assert.Equal(t, []string{"1990-06-10", "2000-06-12", "1985-06-17"}, names(got))
}

func TestUpcoming_AcrossYearEnd(t *testing.T) {
	today := models.NewDate(2025, time.December, 28)
	contacts := []*models.Contact{
		bday(1990, time.January, 3),
		bday(1990, time.January, 5),
		bday(1990, time.December, 31),
		bday(1990, time.December, 27),
	}

	got := upcoming(contacts, today, BirthdayWindow)
	assert.Equal(t, []string{"1990-12-31", "1990-01-03"}, names(got))
}

func TestUpcoming_AcrossMonthEnd(t *testing.T) {
	today := models.NewDate(2025, time.April, 28)
	got := upcoming([]*models.Contact{bday(1990, time.May, 5), bday(1990, time.May, 6)}, today, BirthdayWindow)
	assert.Equal(t, []string{"1990-05-05"}, names(got))
}

func TestNextBirthday_LeapDay(t *testing.T) {
	leapling := models.NewDate(2000, time.February, 29)

	next := NextBirthday(leapling, models.NewDate(2025, time.February, 25))
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), next)

	next = NextBirthday(leapling, models.NewDate(2028, time.February, 25))
	assert.Equal(t, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC), next)

	next = NextBirthday(leapling, models.NewDate(2025, time.March, 1))
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), next)
}

func TestUpcoming_SkipsMissingBirthday(t *testing.T) {
	today := models.NewDate(2025, time.June, 10)
	got := upcoming([]*models.Contact{{FirstName: "none"}}, today, BirthdayWindow)
	assert.Empty(t, got)
}

func TestContactService_UpcomingBirthdays(t *testing.T) {
	svc, _ := newContacts()
	ctx := context.Background()

	soon := contactInput("a@x.com", "+15551234567")
	soon.Birthday = models.NewDate(1990, time.June, 12)
	later := contactInput("b@x.com", "+15557654321")
	later.Birthday = models.NewDate(1990, time.August, 1)
	for _, in := range []models.ContactInput{soon, later} {
		_, err := svc.Create(ctx, owner1, in)
		require.NoError(t, err)
	}
	other := contactInput("c@x.com", "+15550000000")
	other.Birthday = models.NewDate(1990, time.June, 11)
	_, err := svc.Create(ctx, owner2, other)
	require.NoError(t, err)

	got, err := svc.UpcomingBirthdays(ctx, owner1, time.Date(2025, time.June, 10, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].Email)
}
