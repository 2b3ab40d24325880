package services

import (
	"context"
	"sort"
	"time"

	"github.com/AnshRaj112/contacts-backend/internal/models"
)

// BirthdayWindow is how far ahead upcoming birthdays are looked up, today
// included.
const BirthdayWindow = 7

// UpcomingBirthdays returns the owner's contacts whose next birthday falls in
// [today, today+7 days], soonest first.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, owner *models.User, today time.Time) ([]*models.Contact, error) {
	all, err := s.store.ListAll(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	return upcoming(all, models.DateOf(today), BirthdayWindow), nil
}

func upcoming(contacts []*models.Contact, today models.Date, days int) []*models.Contact {
	type hit struct {
		c    *models.Contact
		when time.Time
	}
	limit := today.AddDate(0, 0, days)

	hits := make([]hit, 0)
	for _, c := range contacts {
		if c.Birthday.IsZero() {
			continue
		}
		next := NextBirthday(c.Birthday, today)
		if !next.After(limit) {
			hits = append(hits, hit{c: c, when: next})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].when.Before(hits[j].when) })

	out := make([]*models.Contact, len(hits))
	for i, h := range hits {
		out[i] = h.c
	}
	return out
}

// NextBirthday returns the first anniversary of birthday on or after today.
// Feb 29 birthdays fall on Feb 28 in common years.
func NextBirthday(birthday, today models.Date) time.Time {
	next := anniversary(birthday, today.Year())
	if next.Before(today.Time) {
		next = anniversary(birthday, today.Year()+1)
	}
	return next
}

func anniversary(birthday models.Date, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
