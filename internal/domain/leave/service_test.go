package leave_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/leave"
	"dayflow/internal/domain/notifications"
	"dayflow/internal/platform/validate"
)

var _ = Describe("Leave Service", func() {
	var (
		store    *MemoryStore
		notifier *RecordingNotifier
		service  *leave.Service
		ctx      context.Context
		employee auth.UserContext
		other    auth.UserContext
		admin    auth.UserContext
	)

	submit := func(who auth.UserContext, start, end string) leave.Request {
		rec, err := service.Submit(ctx, who, leave.SubmitInput{Type: "PAID", StartDate: start, EndDate: end, Remarks: "Family event"})
		Expect(err).NotTo(HaveOccurred())
		return rec
	}

	BeforeEach(func() {
		store = NewMemoryStore()
		notifier = &RecordingNotifier{}
		service = leave.NewService(store, notifier)
		ctx = context.Background()
		employee = auth.UserContext{UserID: "user-1", Role: auth.RoleEmployee}
		other = auth.UserContext{UserID: "user-2", Role: auth.RoleEmployee}
		admin = auth.UserContext{UserID: "admin-1", Role: auth.RoleAdmin}
	})

	Describe("Submit", func() {
		It("creates a pending request for the principal", func() {
			rec, err := service.Submit(ctx, employee, leave.SubmitInput{
				Type:      "paid",
				StartDate: "2024-06-01",
				EndDate:   "2024-06-03",
				Remarks:   "Family event",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(leave.StatusPending))
			Expect(rec.UserID).To(Equal("user-1"))
			Expect(rec.Type).To(Equal(leave.TypePaid))
			Expect(rec.Days).To(Equal(3.0))
			Expect(rec.CreatedAt.IsZero()).To(BeFalse())
		})

		It("rejects an end date before the start date", func() {
			_, err := service.Submit(ctx, employee, leave.SubmitInput{Type: "SICK", StartDate: "2024-06-03", EndDate: "2024-06-01"})

			verr, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(verr.Issues[0].Field).To(Equal("endDate"))
		})

		DescribeTable("rejects malformed input",
			func(in leave.SubmitInput, field string) {
				_, err := service.Submit(ctx, employee, in)

				verr, ok := validate.As(err)
				Expect(ok).To(BeTrue())
				Expect(verr.Issues[0].Field).To(Equal(field))
			},
			Entry("unknown type", leave.SubmitInput{Type: "HOLIDAY", StartDate: "2024-06-01", EndDate: "2024-06-01"}, "type"),
			Entry("missing start", leave.SubmitInput{Type: "PAID", EndDate: "2024-06-01"}, "startDate"),
			Entry("bad end format", leave.SubmitInput{Type: "PAID", StartDate: "2024-06-01", EndDate: "06/02/2024"}, "endDate"),
		)

		It("rejects a range overlapping an open request", func() {
			submit(employee, "2024-06-01", "2024-06-03")

			_, err := service.Submit(ctx, employee, leave.SubmitInput{Type: "SICK", StartDate: "2024-06-03", EndDate: "2024-06-04"})

			verr, ok := validate.As(err)
			Expect(ok).To(BeTrue())
			Expect(verr.Issues[0].Field).To(Equal("startDate"))
		})

		It("allows the same range again once the first was rejected", func() {
			first := submit(employee, "2024-06-01", "2024-06-03")
			_, err := service.Decide(ctx, admin, first.ID, leave.DecideInput{Status: "REJECTED"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Submit(ctx, employee, leave.SubmitInput{Type: "PAID", StartDate: "2024-06-01", EndDate: "2024-06-03"})

			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts only one of several concurrent overlapping submits", func() {
			var wg sync.WaitGroup
			errs := make([]error, 8)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = service.Submit(ctx, employee, leave.SubmitInput{Type: "PAID", StartDate: "2024-07-01", EndDate: "2024-07-05"})
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				verr, ok := validate.As(err)
				Expect(ok).To(BeTrue())
				Expect(verr.Issues[0].Field).To(Equal("startDate"))
			}
			Expect(succeeded).To(Equal(1))
		})

		It("does not treat other users' requests as overlaps", func() {
			submit(employee, "2024-06-01", "2024-06-03")

			_, err := service.Submit(ctx, other, leave.SubmitInput{Type: "PAID", StartDate: "2024-06-01", EndDate: "2024-06-03"})

			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Decide", func() {
		var pending leave.Request

		BeforeEach(func() {
			pending = submit(employee, "2024-06-01", "2024-06-03")
		})

		It("approves a pending request and records the decision", func() {
			rec, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "APPROVED", Comment: "ok"})

			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(leave.StatusApproved))
			Expect(*rec.AdminComment).To(Equal("ok"))
			Expect(*rec.DecidedBy).To(Equal("admin-1"))
			Expect(rec.DecidedAt).NotTo(BeNil())
		})

		It("refuses a second decision", func() {
			_, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "APPROVED", Comment: "ok"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "REJECTED"})

			Expect(errors.Is(err, leave.ErrInvalidTransition)).To(BeTrue())
			current, _ := store.Get(ctx, pending.ID)
			Expect(current.Status).To(Equal(leave.StatusApproved))
		})

		It("rejects employees regardless of status", func() {
			_, err := service.Decide(ctx, employee, pending.ID, leave.DecideInput{Status: "APPROVED"})
			Expect(errors.Is(err, leave.ErrUnauthorized)).To(BeTrue())

			_, err = service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "REJECTED"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Decide(ctx, employee, pending.ID, leave.DecideInput{Status: "APPROVED"})
			Expect(errors.Is(err, leave.ErrUnauthorized)).To(BeTrue())

			_, err = service.Decide(ctx, employee, "missing", leave.DecideInput{Status: "bogus"})
			Expect(errors.Is(err, leave.ErrUnauthorized)).To(BeTrue())
		})

		It("validates the decision", func() {
			_, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "PENDING"})

			_, ok := validate.As(err)
			Expect(ok).To(BeTrue())
		})

		It("returns not found for an unknown id", func() {
			_, err := service.Decide(ctx, admin, "missing", leave.DecideInput{Status: "APPROVED"})

			Expect(errors.Is(err, leave.ErrNotFound)).To(BeTrue())
		})

		It("lets exactly one of two racing admins win", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i, status := range []string{"APPROVED", "REJECTED"} {
				wg.Add(1)
				go func(i int, status string) {
					defer wg.Done()
					_, errs[i] = service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: status})
				}(i, status)
			}
			wg.Wait()

			failures := 0
			for _, err := range errs {
				if err != nil {
					Expect(errors.Is(err, leave.ErrInvalidTransition)).To(BeTrue())
					failures++
				}
			}
			Expect(failures).To(Equal(1))
		})

		It("does not report a transition conflict for a request still pending", func() {
			store.ignoreDecides = true

			_, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "APPROVED"})

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, leave.ErrInvalidTransition)).To(BeFalse())
		})

		It("notifies the requester", func() {
			_, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "APPROVED", Comment: "enjoy"})
			Expect(err).NotTo(HaveOccurred())

			sent := notifier.Sent()
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].UserID).To(Equal("user-1"))
			Expect(sent[0].Type).To(Equal(notifications.TypeLeaveApproved))
			Expect(sent[0].Body).To(ContainSubstring("enjoy"))
		})

		It("still succeeds when the notification fails", func() {
			notifier.err = errors.New("smtp down")

			rec, err := service.Decide(ctx, admin, pending.ID, leave.DecideInput{Status: "REJECTED"})

			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(leave.StatusRejected))
		})
	})

	Describe("List", func() {
		var first, second, third leave.Request

		BeforeEach(func() {
			first = submit(employee, "2024-06-01", "2024-06-01")
			second = submit(other, "2024-06-02", "2024-06-02")
			third = submit(employee, "2024-06-10", "2024-06-12")
		})

		It("returns every request newest first for admins", func() {
			items, total, err := service.List(ctx, admin, leave.ListFilter{}, 50, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
			Expect([]string{items[0].ID, items[1].ID, items[2].ID}).To(Equal([]string{third.ID, second.ID, first.ID}))
		})

		It("filters by user in the same order", func() {
			items, _, err := service.List(ctx, admin, leave.ListFilter{UserID: "user-1"}, 50, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal(third.ID))
			Expect(items[1].ID).To(Equal(first.ID))
		})

		It("scopes employees to their own requests", func() {
			items, total, err := service.List(ctx, other, leave.ListFilter{UserID: "user-1"}, 50, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(1))
			Expect(items[0].ID).To(Equal(second.ID))
		})

		It("surfaces store failures", func() {
			store.SetShouldFail(true, errors.New("db unavailable"))

			_, _, err := service.List(ctx, admin, leave.ListFilter{}, 50, 0)

			Expect(err).To(MatchError("db unavailable"))
		})
	})

	Describe("Get", func() {
		It("forbids reading someone else's request", func() {
			rec := submit(employee, "2024-06-01", "2024-06-01")

			_, err := service.Get(ctx, other, rec.ID)

			Expect(errors.Is(err, leave.ErrForbidden)).To(BeTrue())
		})
	})
})
