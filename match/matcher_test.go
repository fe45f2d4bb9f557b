package match_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/medimatch"
	"github.com/fwojciec/medimatch/match"
	"github.com/fwojciec/medimatch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directoryReturning(entries []medimatch.RawEntry, err error) *mock.DoctorDirectory {
	return &mock.DoctorDirectory{
		SearchFn: func(context.Context, medimatch.Query) ([]medimatch.RawEntry, error) {
			return entries, err
		},
	}
}

func testQuery(maxResults int) medimatch.Query {
	return medimatch.Query{Specialty: "dermatologist", Location: "Berlin", MaxResults: maxResults}
}

func TestMatcher_FindDoctors(t *testing.T) {
	t.Parallel()

	t.Run("merges case-insensitive duplicates keeping slots from the richer entry", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Name: "Dr. A", Address: "1 Main St"},
			{Name: "dr. a", Address: "1 MAIN ST", Slots: []string{"2024-01-01T10:00"}},
		}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, "Dr. A", doctors[0].Name)
		assert.Equal(t, "1 Main St", doctors[0].Address)
		assert.Equal(t, []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}, doctors[0].AvailableSlots)
	})

	t.Run("unions non-conflicting optional fields of duplicates", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Name: "Dr. B", Address: "2 Side St", Phone: "(650) 253-0000", Insurance: []string{"AOK"}},
			{Name: "Dr.  B", Address: "2 side st", URL: "https://example.com/dr-b", Insurance: []string{"TK", "AOK"}},
		}, nil))
		m.PhoneRegion = "US"

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, "+16502530000", doctors[0].Phone)
		assert.Equal(t, "https://example.com/dr-b", doctors[0].SourceURL)
		assert.Equal(t, []string{"AOK", "TK"}, doctors[0].AcceptedInsurance)
	})

	t.Run("prefers the richer duplicate on conflicting fields", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Name: "Dr. C", Address: "3 Road", URL: "https://example.com/old"},
			{Name: "Dr. C", Address: "3 Road", URL: "https://example.com/new", Description: "Skin care"},
		}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, "https://example.com/new", doctors[0].SourceURL)
		assert.Equal(t, "Skin care", doctors[0].Description)
	})

	t.Run("keeps the first seen value when duplicates are equally rich", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Name: "Dr. C", Address: "3 Road", URL: "https://example.com/first"},
			{Name: "Dr. C", Address: "3 Road", URL: "https://example.com/second"},
		}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, "https://example.com/first", doctors[0].SourceURL)
	})

	t.Run("ranks doctors with availability first preserving source order", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Name: "None 1", Address: "a"},
			{Name: "Open 1", Address: "b", Slots: []string{"2024-01-02T09:00"}},
			{Name: "None 2", Address: "c"},
			{Name: "Open 2", Address: "d", Slots: []string{"2024-01-01T09:00"}},
		}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 4)
		assert.Equal(t, "Open 1", doctors[0].Name)
		assert.Equal(t, "Open 2", doctors[1].Name)
		assert.Equal(t, "None 1", doctors[2].Name)
		assert.Equal(t, "None 2", doctors[3].Name)
	})

	t.Run("never returns more than max results", func(t *testing.T) {
		t.Parallel()

		var entries []medimatch.RawEntry
		for i := range 25 {
			entries = append(entries, medimatch.RawEntry{Name: fmt.Sprintf("Dr. %d", i), Address: "Main St"})
		}
		m := match.NewMatcher(directoryReturning(entries, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(3))

		require.NoError(t, err)
		assert.Len(t, doctors, 3)
		assert.Equal(t, "Dr. 0", doctors[0].Name)
	})

	t.Run("normalizes whitespace, phones and slots", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{{
			Name:    "  Dr.\n Jane   Doe ",
			Address: "Main St 1,\n10115 Berlin",
			Phone:   "call the front desk",
			Slots:   []string{"2024-03-02T08:00", "not a date", "2024-03-01T08:00", "2024-03-01T08:00"},
		}}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		d := doctors[0]
		assert.Equal(t, "Dr. Jane Doe", d.Name)
		assert.Equal(t, "Main St 1, 10115 Berlin", d.Address)
		assert.Empty(t, d.Phone)
		assert.Equal(t, "dermatologist", d.Specialty)
		assert.Equal(t, []time.Time{
			time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
		}, d.AvailableSlots)
		assert.Equal(t, medimatch.DoctorID("Dr. Jane Doe", "Main St 1, 10115 Berlin"), d.ID)
	})

	t.Run("drops entries without name and address and telehealth entries", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{
			{Phone: "(650) 253-0000"},
			{Name: "Video Only", Address: "Online", Telehealth: true},
			{Name: "Dr. Keep"},
		}, nil))

		doctors, err := m.FindDoctors(context.Background(), testQuery(10))

		require.NoError(t, err)
		require.Len(t, doctors, 1)
		assert.Equal(t, "Dr. Keep", doctors[0].Name)
	})

	t.Run("returns no matches when every entry is dropped", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{{Phone: "123"}, {Name: "   "}}, nil))

		_, err := m.FindDoctors(context.Background(), testQuery(10))

		require.Error(t, err)
		assert.Equal(t, medimatch.ENOMATCHES, medimatch.ErrorCode(err))
	})

	t.Run("returns no matches when directory has no results", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning(nil, medimatch.Errorf(medimatch.ENORESULTS, "no results")))

		_, err := m.FindDoctors(context.Background(), testQuery(10))

		require.Error(t, err)
		assert.Equal(t, medimatch.ENOMATCHES, medimatch.ErrorCode(err))
		assert.True(t, medimatch.HasCode(err, medimatch.ENORESULTS))
	})

	t.Run("returns no matches for an empty directory response", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning([]medimatch.RawEntry{}, nil))

		_, err := m.FindDoctors(context.Background(), testQuery(10))

		assert.Equal(t, medimatch.ENOMATCHES, medimatch.ErrorCode(err))
	})

	t.Run("wraps directory network failures as upstream errors", func(t *testing.T) {
		t.Parallel()

		cause := medimatch.WrapError(medimatch.ENETWORK, "directory", context.DeadlineExceeded, "search timed out")
		m := match.NewMatcher(directoryReturning(nil, cause))

		_, err := m.FindDoctors(context.Background(), testQuery(10))

		require.Error(t, err)
		assert.Equal(t, medimatch.EUPSTREAM, medimatch.ErrorCode(err))
		assert.True(t, medimatch.HasCode(err, medimatch.ENETWORK))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("keeps directory input errors as input errors", func(t *testing.T) {
		t.Parallel()

		m := match.NewMatcher(directoryReturning(nil, medimatch.Errorf(medimatch.EINVALID, "query has no searchable specialty or location")))

		_, err := m.FindDoctors(context.Background(), medimatch.Query{Specialty: "dentist", Location: "???", MaxResults: 10})

		require.Error(t, err)
		assert.Equal(t, medimatch.EINVALID, medimatch.ErrorCode(err))
		assert.Equal(t, match.MessageNotUnderstood, match.ErrorMessage(err))
	})

	t.Run("passes non-Latin locations to the directory unchanged", func(t *testing.T) {
		t.Parallel()

		for _, location := range []string{"Москва", "東京", "Αθήνα"} {
			var searched medimatch.Query
			m := match.NewMatcher(&mock.DoctorDirectory{
				SearchFn: func(_ context.Context, q medimatch.Query) ([]medimatch.RawEntry, error) {
					searched = q
					return []medimatch.RawEntry{{Name: "Dr. " + location, Address: location}}, nil
				},
			})

			doctors, err := m.FindDoctors(context.Background(), medimatch.Query{Specialty: "dentist", Location: location, MaxResults: 10})

			require.NoError(t, err, location)
			assert.Equal(t, location, searched.Location)
			assert.Equal(t, "Dr. "+location, doctors[0].Name)
		}
	})

	t.Run("applies the default insurance sector", func(t *testing.T) {
		t.Parallel()

		var sectors []string
		m := match.NewMatcher(&mock.DoctorDirectory{
			SearchFn: func(_ context.Context, q medimatch.Query) ([]medimatch.RawEntry, error) {
				sectors = append(sectors, q.InsuranceSector)
				return []medimatch.RawEntry{{Name: "Dr. A", Address: "a"}}, nil
			},
		})
		m.InsuranceSector = medimatch.InsurancePublic

		_, err := m.FindDoctors(context.Background(), testQuery(10))
		require.NoError(t, err)
		q := testQuery(10)
		q.InsuranceSector = medimatch.InsurancePrivate
		_, err = m.FindDoctors(context.Background(), q)
		require.NoError(t, err)

		assert.Equal(t, []string{medimatch.InsurancePublic, medimatch.InsurancePrivate}, sectors)
	})

	t.Run("rejects invalid queries before searching", func(t *testing.T) {
		t.Parallel()

		called := false
		m := match.NewMatcher(&mock.DoctorDirectory{
			SearchFn: func(context.Context, medimatch.Query) ([]medimatch.RawEntry, error) {
				called = true
				return nil, nil
			},
		})

		_, err := m.FindDoctors(context.Background(), medimatch.Query{Specialty: "dentist", MaxResults: 5})

		require.Error(t, err)
		assert.Equal(t, medimatch.EMISSINGLOCATION, medimatch.ErrorCode(err))
		assert.False(t, called)
	})

	t.Run("produces identical output for identical responses", func(t *testing.T) {
		t.Parallel()

		entries := []medimatch.RawEntry{
			{Name: "Dr. X", Address: "x", Slots: []string{"2024-05-01 10:00"}, Insurance: []string{"TK", "AOK"}},
			{Name: "Dr. Y", Address: "y", Languages: []string{"en", "de"}},
			{Name: "dr. x", Address: "X", Phone: "(650) 253-0000"},
		}
		m := match.NewMatcher(directoryReturning(entries, nil))

		first, err := m.FindDoctors(context.Background(), testQuery(10))
		require.NoError(t, err)
		second, err := m.FindDoctors(context.Background(), testQuery(10))
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	})
}

func TestRank(t *testing.T) {
	t.Parallel()

	slot := []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	in := []medimatch.Doctor{
		{Name: "a"},
		{Name: "b", AvailableSlots: slot},
		{Name: "c"},
	}

	out := match.Rank(in)

	assert.Equal(t, []string{"b", "a", "c"}, []string{out[0].Name, out[1].Name, out[2].Name})
	assert.Equal(t, "a", in[0].Name, "input must not be reordered")
}

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	in := []medimatch.Doctor{
		{Name: "Dr. A", Address: "1 Main St", ID: "first"},
		{Name: "Dr. B", Address: "2 Main St"},
		{Name: "DR. A", Address: "1   main st", ID: "second", Languages: []string{"fr"}},
	}

	out := match.Deduplicate(in)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, []string{"fr"}, out[0].Languages)
	assert.Equal(t, "Dr. B", out[1].Name)
}
