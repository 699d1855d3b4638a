package lifecycle_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"sync"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ActivityEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(*events.ActivityEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Action)
	}
	return out
}

func userTarget(id int64) lifecycle.Target {
	return lifecycle.Target{UserID: &id}
}

var _ = Describe("Lifecycle Service", func() {
	var (
		store     *memStore
		publisher *recordingPublisher
		service   *lifecycle.Service
		ctx       context.Context

		assetA      = lifecycle.AssetRef(100)
		credentialC = lifecycle.CredentialRef(200)
	)

	const actor = int64(9)

	BeforeEach(func() {
		store = newMemStore()
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = lifecycle.NewService(store, publisher, logger)
		ctx = context.Background()

		store.addAsset(assetA.ID, lifecycle.StatusAvailable)
		store.addAsset(101, lifecycle.StatusAvailable)
		store.addCredential(credentialC.ID)
		for _, id := range []int64{1, 2, 7, 42} {
			store.addUser(id, "user", true, false)
		}
		store.addUser(50, "inactive", false, false)
		store.addUser(51, "deleted", true, true)
		store.addLocation(3, "Warehouse")
	})

	Describe("Asset A scenario", func() {
		It("checks out, refuses a second checkout, checks in and records two entries", func() {
			res, err := service.Checkout(ctx, actor, assetA, userTarget(42), "laptop for onboarding")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Resource.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(res.Resource.Holders).To(HaveLen(1))
			Expect(res.Resource.Holders[0].ID).To(Equal(int64(42)))
			Expect(res.Entry.Action).To(Equal(lifecycle.ActionCheckout))

			_, err = service.Checkout(ctx, actor, assetA, userTarget(7), "")
			Expect(errors.Is(err, lifecycle.ErrAlreadyAssigned)).To(BeTrue())
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())

			in, err := service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Outcome).To(Equal(lifecycle.OutcomeCompleted))
			Expect(in.Resource.Status).To(Equal(lifecycle.StatusAvailable))
			Expect(in.Resource.Holders).To(BeEmpty())

			history, err := service.History(ctx, assetA)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Action).To(Equal(lifecycle.ActionCheckout))
			Expect(history[1].Action).To(Equal(lifecycle.ActionCheckin))
			Expect(*history[1].TargetID).To(Equal(int64(42)))
		})
	})

	Describe("Credential C scenario", func() {
		It("returns the holder list when ambiguous and releases the chosen one", func() {
			_, err := service.Checkout(ctx, actor, credentialC, userTarget(1), "")
			Expect(err).NotTo(HaveOccurred())
			res, err := service.Checkout(ctx, actor, credentialC, userTarget(2), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Resource.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(res.Resource.Holders).To(HaveLen(2))

			in, err := service.Checkin(ctx, actor, credentialC, lifecycle.CheckinRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(in.NeedsSelection()).To(BeTrue())
			Expect(in.Entry).To(BeNil())
			ids := []int64{in.Holders[0].ID, in.Holders[1].ID}
			Expect(ids).To(ConsistOf(int64(1), int64(2)))

			history, _ := service.History(ctx, credentialC)
			Expect(history).To(HaveLen(2))

			in, err = service.Checkin(ctx, actor, credentialC, lifecycle.CheckinRequest{
				Holder: &lifecycle.HolderSelection{Type: lifecycle.HolderUser, ID: 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Outcome).To(Equal(lifecycle.OutcomeCompleted))
			Expect(in.Resource.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(in.Resource.Holders).To(HaveLen(1))
			Expect(in.Resource.Holders[0].ID).To(Equal(int64(2)))

			history, _ = service.History(ctx, credentialC)
			Expect(history).To(HaveLen(3))
		})
	})

	Describe("Checkout", func() {
		It("rejects a duplicate credential holder", func() {
			_, err := service.Checkout(ctx, actor, credentialC, userTarget(1), "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Checkout(ctx, actor, credentialC, userTarget(1), "")
			Expect(errors.Is(err, lifecycle.ErrDuplicateHolder)).To(BeTrue())
		})

		It("checks an asset out to a location", func() {
			res, err := service.Checkout(ctx, actor, assetA, lifecycle.Target{LocationID: int64Ptr(3)}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Resource.Holders[0].DisplayName).To(Equal("Warehouse"))
		})

		It("checks an asset out to another asset", func() {
			_, err := service.Checkout(ctx, actor, assetA, lifecycle.Target{AssetID: int64Ptr(101)}, "docking station")
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses to check an asset out to itself", func() {
			_, err := service.Checkout(ctx, actor, assetA, lifecycle.Target{AssetID: int64Ptr(assetA.ID)}, "")
			Expect(errors.Is(err, lifecycle.ErrSelfAssignment)).To(BeTrue())
		})

		It("refuses a location as credential holder", func() {
			_, err := service.Checkout(ctx, actor, credentialC, lifecycle.Target{LocationID: int64Ptr(3)}, "")
			Expect(errors.Is(err, lifecycle.ErrInvalidTarget)).To(BeTrue())
		})

		It("rejects targets naming two holders", func() {
			_, err := service.Checkout(ctx, actor, assetA, lifecycle.Target{UserID: int64Ptr(1), LocationID: int64Ptr(3)}, "")
			Expect(errors.Is(err, lifecycle.ErrInvalidTarget)).To(BeTrue())
		})

		DescribeTable("reports missing or unusable users as not found",
			func(userID int64) {
				_, err := service.Checkout(ctx, actor, assetA, userTarget(userID), "")
				Expect(errors.Is(err, lifecycle.ErrHolderNotFound)).To(BeTrue())
				snap, _ := service.Snapshot(ctx, assetA)
				Expect(snap.Status).To(Equal(lifecycle.StatusAvailable))
			},
			Entry("unknown", int64(404)),
			Entry("inactive", int64(50)),
			Entry("deleted", int64(51)),
		)

		It("reports a missing resource as not found", func() {
			_, err := service.Checkout(ctx, actor, lifecycle.AssetRef(999), userTarget(1), "")
			Expect(errors.Is(err, lifecycle.ErrAssetNotFound)).To(BeTrue())
		})

		It("refuses soft-deleted resources", func() {
			_, err := service.SoftDelete(ctx, actor, assetA)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Checkout(ctx, actor, assetA, userTarget(1), "")
			Expect(errors.Is(err, lifecycle.ErrResourceDeleted)).To(BeTrue())
		})

		It("refuses assets in maintenance", func() {
			store.addAsset(102, lifecycle.StatusMaintenance)
			_, err := service.Checkout(ctx, actor, lifecycle.AssetRef(102), userTarget(1), "")
			Expect(errors.Is(err, lifecycle.ErrNotAvailable)).To(BeTrue())
		})

		It("publishes activity only after a successful change", func() {
			_, _ = service.Checkout(ctx, actor, assetA, userTarget(404), "")
			Expect(publisher.actions()).To(BeEmpty())

			_, err := service.Checkout(ctx, actor, assetA, userTarget(1), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.actions()).To(Equal([]string{"asset.checkout"}))
		})
	})

	Describe("Checkin", func() {
		It("fails when nothing is checked out", func() {
			_, err := service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{})
			Expect(errors.Is(err, lifecycle.ErrNotCheckedOut)).To(BeTrue())
		})

		It("rejects a selection that does not hold the resource", func() {
			_, err := service.Checkout(ctx, actor, assetA, userTarget(42), "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{
				Holder: &lifecycle.HolderSelection{Type: lifecycle.HolderUser, ID: 7},
			})
			Expect(errors.Is(err, lifecycle.ErrHolderNotAssigned)).To(BeTrue())
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("applies return attributes in the same transaction", func() {
			_, err := service.Checkout(ctx, actor, assetA, userTarget(42), "")
			Expect(err).NotTo(HaveOccurred())

			cond := "scratched lid"
			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{
				Return: lifecycle.ReturnState{LocationID: int64Ptr(3), Condition: &cond},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*store.state.assets[assetA.ID].locationID).To(Equal(int64(3)))
			Expect(store.state.assets[assetA.ID].condition).To(Equal(cond))
		})

		It("rolls back the release when the return location is unknown", func() {
			_, err := service.Checkout(ctx, actor, assetA, userTarget(42), "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{
				Return: lifecycle.ReturnState{LocationID: int64Ptr(77)},
			})
			Expect(errors.Is(err, lifecycle.ErrLocationNotFound)).To(BeTrue())

			snap, err := service.Snapshot(ctx, assetA)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Status).To(Equal(lifecycle.StatusAssigned))
			history, _ := service.History(ctx, assetA)
			Expect(history).To(HaveLen(1))
		})

		It("refuses return attributes for credentials", func() {
			cond := "ok"
			_, err := service.Checkin(ctx, actor, credentialC, lifecycle.CheckinRequest{
				Return: lifecycle.ReturnState{Condition: &cond},
			})
			Expect(errors.Is(err, lifecycle.ErrReturnNotSupported)).To(BeTrue())
		})

		It("leaves everything untouched when the commit fails", func() {
			_, err := service.Checkout(ctx, actor, assetA, userTarget(42), "")
			Expect(err).NotTo(HaveOccurred())

			store.failNext = errors.New("disk full")
			store.failCount = 1
			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{})
			Expect(err).To(HaveOccurred())

			snap, _ := service.Snapshot(ctx, assetA)
			Expect(snap.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(snap.Holders).To(HaveLen(1))
			history, _ := service.History(ctx, assetA)
			Expect(history).To(HaveLen(1))
		})
	})

	Describe("SoftDelete and Restore", func() {
		It("keeps status, holders and history", func() {
			_, err := service.Checkout(ctx, actor, credentialC, userTarget(1), "")
			Expect(err).NotTo(HaveOccurred())

			snap, err := service.SoftDelete(ctx, actor, credentialC)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Deleted).To(BeTrue())
			Expect(snap.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(snap.Holders).To(HaveLen(1))

			history, err := service.History(ctx, credentialC)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
		})

		It("refuses check-in while deleted and allows it after restore", func() {
			_, err := service.Checkout(ctx, actor, assetA, userTarget(1), "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SoftDelete(ctx, actor, assetA)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{})
			Expect(errors.Is(err, lifecycle.ErrResourceDeleted)).To(BeTrue())

			snap, err := service.Restore(ctx, actor, assetA)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Deleted).To(BeFalse())

			_, err = service.Checkin(ctx, actor, assetA, lifecycle.CheckinRequest{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("is idempotent", func() {
			_, err := service.SoftDelete(ctx, actor, assetA)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SoftDelete(ctx, actor, assetA)
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.actions()).To(Equal([]string{"asset.delete"}))
		})
	})

	Describe("status invariant", func() {
		It("holds after every operation in random sequences", func() {
			rng := rand.New(rand.NewSource(GinkgoRandomSeed()))
			refs := []lifecycle.ResourceRef{assetA, lifecycle.AssetRef(101), credentialC}
			users := []int64{1, 2, 7, 42, 50}

			for step := 0; step < 500; step++ {
				ref := refs[rng.Intn(len(refs))]
				switch rng.Intn(5) {
				case 0, 1:
					_, _ = service.Checkout(ctx, actor, ref, userTarget(users[rng.Intn(len(users))]), "")
				case 2:
					_, _ = service.Checkin(ctx, actor, ref, lifecycle.CheckinRequest{})
				case 3:
					sel := &lifecycle.HolderSelection{Type: lifecycle.HolderUser, ID: users[rng.Intn(len(users))]}
					_, _ = service.Checkin(ctx, actor, ref, lifecycle.CheckinRequest{Holder: sel})
				case 4:
					if rng.Intn(2) == 0 {
						_, _ = service.SoftDelete(ctx, actor, ref)
					} else {
						_, _ = service.Restore(ctx, actor, ref)
					}
				}

				for _, r := range refs {
					a, err := store.Load(ctx, r)
					Expect(err).NotTo(HaveOccurred())
					Expect(lifecycle.Consistent(a)).To(BeTrue(), "step %d on %s", step, r)
				}
			}
		})
	})
})
