package notification

import (
	"context"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/core/events"
)

func TestNotification(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Notification Module Suite")
}

type memRepo struct {
	notifications map[int64]*Notification
	nextID        int64
}

func newMemRepo() *memRepo {
	return &memRepo{notifications: make(map[int64]*Notification), nextID: 1}
}

func (m *memRepo) Create(n *Notification) error {
	n.ID = m.nextID
	m.nextID++
	copied := *n
	m.notifications[n.ID] = &copied
	return nil
}

func (m *memRepo) ListByRecipient(userID int64, limit, offset int) ([]*Notification, error) {
	var out []*Notification
	for _, n := range m.notifications {
		if n.RecipientID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memRepo) MarkRead(id, userID int64) (bool, error) {
	n, ok := m.notifications[id]
	if !ok || n.RecipientID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (m *memRepo) MarkAllRead(userID int64) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *memRepo) CountUnread(userID int64) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type staticDirectory struct {
	ids []int64
}

func (d *staticDirectory) ApproverIDs(ctx context.Context) ([]int64, error) {
	return d.ids, nil
}

var _ = ginkgo.Describe("Notification Service", func() {
	var (
		repo      *memRepo
		directory *staticDirectory
		bus       *events.EventBus
		service   *Service
		ctx       context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newMemRepo()
		directory = &staticDirectory{ids: []int64{2, 3}}
		bus = events.NewEventBus(slog.Default())
		service = NewService(repo, directory, slog.Default())
		service.RegisterEventHandlers(bus)
		ctx = context.Background()
	})

	ginkgo.Describe("approval created fan-out", func() {
		ginkgo.It("should notify only the assigned approver when one is set", func() {
			approverID := int64(2)
			event := events.NewApprovalCreatedEvent(100, 1, "Priya Nair", &approverID, "leave", 10)

			gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())

			assigned, _ := repo.ListByRecipient(2, 20, 0)
			gomega.Expect(assigned).To(gomega.HaveLen(1))
			gomega.Expect(assigned[0].Message).To(gomega.ContainSubstring("Priya Nair"))
			gomega.Expect(assigned[0].Link).To(gomega.Equal("/approvals/100"))

			other, _ := repo.ListByRecipient(3, 20, 0)
			gomega.Expect(other).To(gomega.BeEmpty())
		})

		ginkgo.It("should fan out to all approver roles when unassigned", func() {
			event := events.NewApprovalCreatedEvent(100, 1, "Priya Nair", nil, "leave", 10)

			gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())

			for _, id := range []int64{2, 3} {
				got, _ := repo.ListByRecipient(id, 20, 0)
				gomega.Expect(got).To(gomega.HaveLen(1))
			}
		})

		ginkgo.It("should never notify the requester about their own request", func() {
			directory.ids = []int64{1, 2}
			event := events.NewApprovalCreatedEvent(100, 1, "Priya Nair", nil, "leave", 10)

			gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())

			own, _ := repo.ListByRecipient(1, 20, 0)
			gomega.Expect(own).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("approval resolved", func() {
		ginkgo.It("should tell the requester the outcome", func() {
			event := events.NewApprovalResolvedEvent(100, 1, 2, "APPROVED", "leave", 10)

			gomega.Expect(bus.PublishSync(ctx, event)).To(gomega.Succeed())

			got, _ := repo.ListByRecipient(1, 20, 0)
			gomega.Expect(got).To(gomega.HaveLen(1))
			gomega.Expect(got[0].Title).To(gomega.Equal("Request approved"))
			gomega.Expect(got[0].Message).To(gomega.ContainSubstring("approved"))
		})
	})

	ginkgo.Describe("read state", func() {
		ginkgo.BeforeEach(func() {
			for i := 0; i < 3; i++ {
				gomega.Expect(repo.Create(&Notification{RecipientID: 1, Title: "t"})).To(gomega.Succeed())
			}
			gomega.Expect(repo.Create(&Notification{RecipientID: 2, Title: "t"})).To(gomega.Succeed())
		})

		ginkgo.It("should count unread per recipient", func() {
			count, err := service.UnreadCount(ctx, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(int64(3)))
		})

		ginkgo.It("should mark a single notification read for its owner only", func() {
			gomega.Expect(service.MarkRead(ctx, 1, 1)).To(gomega.Succeed())

			count, _ := service.UnreadCount(ctx, 1)
			gomega.Expect(count).To(gomega.Equal(int64(2)))

			err := service.MarkRead(ctx, 2, 1)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNotificationNotFound))
		})

		ginkgo.It("should mark everything read at once", func() {
			count, err := service.MarkAllRead(ctx, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(int64(3)))

			unread, _ := service.UnreadCount(ctx, 1)
			gomega.Expect(unread).To(gomega.BeZero())
		})
	})
})
