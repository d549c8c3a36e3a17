package attendance_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dayflow/internal/domain/attendance"
	"dayflow/internal/domain/auth"
	"dayflow/internal/platform/validate"
)

var _ = Describe("Attendance Service", func() {
	var (
		store    *MemoryStore
		service  *attendance.Service
		ctx      context.Context
		clock    time.Time
		employee auth.UserContext
		admin    auth.UserContext
	)

	BeforeEach(func() {
		store = NewMemoryStore()
		service = attendance.NewService(store, time.UTC)
		clock = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
		service.Now = func() time.Time { return clock }
		ctx = context.Background()
		employee = auth.UserContext{UserID: "user-1", Role: auth.RoleEmployee}
		admin = auth.UserContext{UserID: "admin-1", Role: auth.RoleAdmin}
	})

	Describe("Toggle", func() {
		It("checks in when no record exists for today", func() {
			result, err := service.Toggle(ctx, employee)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(attendance.ToggleCheckedIn))
			Expect(result.Record.Date).To(Equal("2024-06-03"))
			Expect(result.Record.CheckIn).NotTo(BeNil())
			Expect(result.Record.CheckOut).To(BeNil())
			Expect(result.Record.Status).To(Equal(attendance.StatusPresent))
			Expect(result.Record.Duration).To(BeNil())
		})

		It("checks out an open record and reports the duration", func() {
			_, err := service.Toggle(ctx, employee)
			Expect(err).NotTo(HaveOccurred())

			clock = clock.Add(8*time.Hour + 30*time.Minute)
			result, err := service.Toggle(ctx, employee)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(attendance.ToggleCheckedOut))
			Expect(result.Record.CheckOut).NotTo(BeNil())
			Expect(result.Record.Duration).NotTo(BeNil())
			Expect(*result.Record.Duration).To(Equal("8.5h"))
		})

		It("rejects a third toggle and leaves the record unchanged", func() {
			_, err := service.Toggle(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			clock = clock.Add(8 * time.Hour)
			closed, err := service.Toggle(ctx, employee)
			Expect(err).NotTo(HaveOccurred())

			clock = clock.Add(time.Hour)
			_, err = service.Toggle(ctx, employee)

			Expect(errors.Is(err, attendance.ErrWorkdayAlreadyFinalized)).To(BeTrue())
			current, err := service.Today(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.CheckOut.Equal(*closed.Record.CheckOut)).To(BeTrue())
			Expect(store.CountFor("user-1", "2024-06-03")).To(Equal(1))
		})

		It("treats a record without a check-in as finalized", func() {
			store.Put(attendance.Record{UserID: "user-1", Date: "2024-06-03", Status: attendance.StatusAbsent})

			_, err := service.Toggle(ctx, employee)

			Expect(errors.Is(err, attendance.ErrWorkdayAlreadyFinalized)).To(BeTrue())
		})

		It("starts a new cycle on the next calendar day", func() {
			_, _ = service.Toggle(ctx, employee)
			_, _ = service.Toggle(ctx, employee)

			clock = clock.Add(24 * time.Hour)
			result, err := service.Toggle(ctx, employee)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(attendance.ToggleCheckedIn))
			Expect(result.Record.Date).To(Equal("2024-06-04"))
		})

		It("decides the day in the configured timezone", func() {
			kolkata := time.FixedZone("IST", 5*3600+1800)
			service = attendance.NewService(store, kolkata)
			service.Now = func() time.Time { return time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC) }

			result, err := service.Toggle(ctx, employee)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Record.Date).To(Equal("2024-06-04"))
		})

		It("keeps at most one record under concurrent toggles", func() {
			var wg sync.WaitGroup
			results := make(chan error, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := service.Toggle(ctx, employee)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			succeeded := 0
			for err := range results {
				if err == nil {
					succeeded++
					continue
				}
				Expect(errors.Is(err, attendance.ErrWorkdayAlreadyFinalized)).To(BeTrue())
			}
			Expect(succeeded).To(Equal(2))
			Expect(store.CountFor("user-1", "2024-06-03")).To(Equal(1))
		})

		It("surfaces store failures", func() {
			store.SetShouldFail(true, errors.New("connection refused"))

			_, err := service.Toggle(ctx, employee)

			Expect(err).To(MatchError("connection refused"))
		})
	})

	Describe("Today", func() {
		It("returns nil when there is no record", func() {
			rec, err := service.Today(ctx, employee)

			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
		})
	})

	Describe("Correct", func() {
		var rec attendance.Record

		BeforeEach(func() {
			in := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
			rec = store.Put(attendance.Record{UserID: "user-1", Date: "2024-06-03", CheckIn: &in, Status: attendance.StatusPresent})
		})

		It("is admin only", func() {
			_, _, err := service.Correct(ctx, employee, rec.ID, attendance.CorrectionPatch{Note: "forgot"})

			Expect(errors.Is(err, attendance.ErrForbidden)).To(BeTrue())
		})

		It("requires a note", func() {
			_, _, err := service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{})

			verr, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(verr.Issues[0].Field).To(Equal("note"))
		})

		It("overwrites fields, records the note and keeps history", func() {
			out := time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC)
			status := "half_day"

			before, updated, err := service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{
				Status:   &status,
				CheckOut: &out,
				Note:     "left early, approved by manager",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(before.Status).To(Equal(attendance.StatusPresent))
			Expect(before.CheckOut).To(BeNil())
			Expect(updated.Status).To(Equal(attendance.StatusHalfDay))
			Expect(*updated.Duration).To(Equal("4.0h"))
			Expect(*updated.CorrectionNote).To(Equal("left early, approved by manager"))

			history, err := service.Corrections(ctx, admin, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].Before.CheckOut).To(BeNil())
			Expect(history[0].After.CheckOut).NotTo(BeNil())
			Expect(history[0].CorrectedBy).To(Equal("admin-1"))
		})

		It("reopens a finalized day when the check-out is cleared", func() {
			out := time.Date(2024, 6, 3, 17, 0, 0, 0, time.UTC)
			_, _, err := service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{CheckOut: &out, Note: "closed"})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{ClearCheckOut: true, Note: "reopen"})
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Toggle(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(attendance.ToggleCheckedOut))
		})

		It("rejects a check-out before the check-in", func() {
			out := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

			_, _, err := service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{CheckOut: &out, Note: "typo"})

			verr, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(verr.Issues[0].Field).To(Equal("checkOut"))
		})

		It("rejects an unknown status", func() {
			status := "SLEEPING"

			_, _, err := service.Correct(ctx, admin, rec.ID, attendance.CorrectionPatch{Status: &status, Note: "x"})

			_, ok := validate.As(err)
			Expect(ok).To(BeTrue())
		})

		It("returns not found for a missing record", func() {
			_, _, err := service.Correct(ctx, admin, "missing", attendance.CorrectionPatch{Note: "x"})

			Expect(errors.Is(err, attendance.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("History", func() {
		BeforeEach(func() {
			store.Put(attendance.Record{UserID: "user-1", Date: "2024-06-01", Status: attendance.StatusPresent})
			store.Put(attendance.Record{UserID: "user-1", Date: "2024-06-02", Status: attendance.StatusAbsent})
			store.Put(attendance.Record{UserID: "user-2", Date: "2024-06-02", Status: attendance.StatusPresent})
		})

		It("lets employees read their own records newest first", func() {
			records, err := service.History(ctx, employee, "user-1", nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].Date).To(Equal("2024-06-02"))
		})

		It("forbids employees from reading other users", func() {
			_, err := service.History(ctx, employee, "user-2", nil, nil)

			Expect(errors.Is(err, attendance.ErrForbidden)).To(BeTrue())
		})

		It("lets admins read anyone within a range", func() {
			from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

			records, err := service.History(ctx, admin, "user-1", &from, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("rejects an inverted range", func() {
			from := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
			to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

			_, err := service.History(ctx, admin, "user-1", &from, &to)

			_, ok := validate.As(err)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Daily", func() {
		It("is admin only", func() {
			_, err := service.Daily(ctx, employee, nil)

			Expect(errors.Is(err, attendance.ErrForbidden)).To(BeTrue())
		})

		It("defaults to today", func() {
			_, _ = service.Toggle(ctx, employee)

			entries, err := service.Daily(ctx, admin, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].UserID).To(Equal("user-1"))
		})
	})

	Describe("SweepAbsences", func() {
		BeforeEach(func() {
			store.activeUsers = []string{"user-1", "user-2", "user-3"}
			store.onLeave["user-3"] = true
		})

		It("marks yesterday for users without a record", func() {
			store.Put(attendance.Record{UserID: "user-1", Date: "2024-06-04", Status: attendance.StatusPresent})
			clock = time.Date(2024, 6, 5, 1, 0, 0, 0, time.UTC)

			result, err := service.SweepAbsences(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Date).To(Equal("2024-06-04"))
			Expect(result.Absent).To(Equal(1))
			Expect(result.OnLeave).To(Equal(1))
			Expect(store.CountFor("user-1", "2024-06-04")).To(Equal(1))
		})

		It("skips weekends", func() {
			result, err := service.SweepAbsencesFor(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Skipped).To(BeTrue())
			Expect(store.CountFor("user-1", "2024-06-01")).To(Equal(0))
		})

		It("refuses today so the open workday can still be checked into", func() {
			_, err := service.SweepAbsencesFor(ctx, clock)

			_, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(store.CountFor("user-1", "2024-06-03")).To(Equal(0))

			result, err := service.Toggle(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(attendance.ToggleCheckedIn))
		})

		It("refuses future days", func() {
			_, err := service.SweepAbsencesFor(ctx, clock.AddDate(0, 0, 2))

			_, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(store.CountFor("user-2", "2024-06-05")).To(Equal(0))
		})
	})
})
