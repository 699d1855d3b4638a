package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/core/database/sqlitetest"
	userDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	permissionPostgres "github.com/frahmantamala/asset-inventory/internal/permission/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// recordingPublisher keeps the actions of published activity events.
type recordingPublisher struct {
	mu      sync.Mutex
	actions []string
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(*events.ActivityEvent); ok {
		p.actions = append(p.actions, ev.Action)
	}
	return nil
}

func (p *recordingPublisher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

var _ = Describe("Permission Service", func() {
	var (
		db        *gorm.DB
		ctx       context.Context
		service   *permission.Service
		resolver  *permission.Resolver
		publisher *recordingPublisher
		alice     *userDatamodel.User
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		repo := permissionPostgres.NewPermissionRepository(db)
		publisher = &recordingPublisher{}
		service = permission.NewService(repo, publisher, logger)
		resolver = permission.NewResolver(repo, logger)

		Expect(service.EnsureRegistry(ctx)).To(Succeed())

		alice, err = sqlitetest.CreateUser(db, "alice@example.com", "Alice", true, false)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	countRows := func(model interface{}) int64 {
		var n int64
		Expect(db.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	effective := func(userID int64) []string {
		keys, err := resolver.EffectivePermissions(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		return keys
	}

	Describe("CreateRole", func() {
		It("creates the role with its keys", func() {
			role, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{
				Name:        " auditor ",
				Permissions: []string{permission.AssetsView, permission.ActivityView},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.Name).To(Equal("auditor"))
			Expect(role.Permissions).To(ConsistOf(permission.AssetsView, permission.ActivityView))
			Expect(publisher.recorded()).To(ConsistOf("role.create"))
		})

		It("writes nothing when one key is not registered", func() {
			_, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{
				Name:        "auditor",
				Permissions: []string{permission.AssetsView, "made.up.key"},
			})
			Expect(errors.Is(err, permission.ErrPermissionNotFound)).To(BeTrue())

			Expect(countRows(&userDatamodel.Role{})).To(BeZero())
			Expect(countRows(&userDatamodel.RolePermission{})).To(BeZero())
			Expect(publisher.recorded()).To(BeEmpty())

			role, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{
				Name:        "auditor",
				Permissions: []string{permission.AssetsView},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(role.Permissions).To(ConsistOf(permission.AssetsView))
		})

		It("rejects a duplicate name", func() {
			_, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{Name: "auditor"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateRole(ctx, 1, permission.CreateRoleDTO{Name: "auditor"})
			Expect(errors.Is(err, permission.ErrDuplicateRole)).To(BeTrue())
		})

		It("rejects a malformed key before touching the store", func() {
			_, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{Name: "auditor", Permissions: []string{"Bad Key"}})
			Expect(errors.Is(err, permission.ErrInvalidKey)).To(BeTrue())
			Expect(countRows(&userDatamodel.Role{})).To(BeZero())
		})
	})

	Describe("EnsureRole", func() {
		It("is idempotent", func() {
			def := permission.RoleDefinition{Name: "viewer", Keys: []string{permission.AssetsView}}
			first, err := service.EnsureRole(ctx, def)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.EnsureRole(ctx, def)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.ID).To(Equal(first.ID))
			Expect(second.Permissions).To(ConsistOf(permission.AssetsView))
			Expect(countRows(&userDatamodel.RolePermission{})).To(Equal(int64(1)))
		})

		It("leaves no role behind when a key is unknown", func() {
			_, err := service.EnsureRole(ctx, permission.RoleDefinition{Name: "ghost", Keys: []string{"made.up.key"}})
			Expect(errors.Is(err, permission.ErrPermissionNotFound)).To(BeTrue())
			Expect(countRows(&userDatamodel.Role{})).To(BeZero())
		})
	})

	Describe("role grants", func() {
		var role *permission.Role

		BeforeEach(func() {
			var err error
			role, err = service.CreateRole(ctx, 1, permission.CreateRoleDTO{Name: "technician"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("grants and revokes a key on a role", func() {
			Expect(service.GrantRolePermission(ctx, 1, role.ID, permission.AssetsCheckout)).To(Succeed())
			got, err := service.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Permissions).To(ConsistOf(permission.AssetsCheckout))

			Expect(service.RevokeRolePermission(ctx, 1, role.ID, permission.AssetsCheckout)).To(Succeed())
			got, err = service.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Permissions).To(BeEmpty())
		})

		It("reports an unknown role", func() {
			err := service.GrantRolePermission(ctx, 1, 999, permission.AssetsView)
			Expect(errors.Is(err, permission.ErrRoleNotFound)).To(BeTrue())
		})

		It("reports an unregistered key", func() {
			err := service.GrantRolePermission(ctx, 1, role.ID, "made.up.key")
			Expect(errors.Is(err, permission.ErrPermissionNotFound)).To(BeTrue())
		})

		It("assigns and unassigns a role", func() {
			Expect(service.GrantRolePermission(ctx, 1, role.ID, permission.AssetsView)).To(Succeed())
			Expect(service.AssignRole(ctx, 1, alice.ID, role.ID)).To(Succeed())
			Expect(effective(alice.ID)).To(ConsistOf(permission.AssetsView))

			Expect(service.UnassignRole(ctx, 1, alice.ID, role.ID)).To(Succeed())
			Expect(effective(alice.ID)).To(BeEmpty())
		})

		It("reports an unknown principal on assignment", func() {
			err := service.AssignRole(ctx, 1, 999, role.ID)
			Expect(errors.Is(err, permission.ErrPrincipalNotFound)).To(BeTrue())
			Expect(countRows(&userDatamodel.UserRole{})).To(BeZero())
		})
	})

	Describe("direct grants", func() {
		It("re-granting a key changes nothing", func() {
			Expect(service.GrantUserPermission(ctx, 1, alice.ID, permission.LocationsManage)).To(Succeed())
			before := effective(alice.ID)

			Expect(service.GrantUserPermission(ctx, 1, alice.ID, permission.LocationsManage)).To(Succeed())
			Expect(effective(alice.ID)).To(Equal(before))
			Expect(countRows(&userDatamodel.UserPermission{})).To(Equal(int64(1)))
		})

		It("keeps a key held through a role after its direct grant is revoked", func() {
			role, err := service.CreateRole(ctx, 1, permission.CreateRoleDTO{
				Name:        "technician",
				Permissions: []string{permission.AssetsCheckout},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(service.AssignRole(ctx, 1, alice.ID, role.ID)).To(Succeed())
			Expect(service.GrantUserPermission(ctx, 1, alice.ID, permission.AssetsCheckout)).To(Succeed())

			Expect(service.RevokeUserPermission(ctx, 1, alice.ID, permission.AssetsCheckout)).To(Succeed())

			ok, err := resolver.Authorize(ctx, alice.ID, permission.AssetsCheckout)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("reports an unknown principal", func() {
			err := service.GrantUserPermission(ctx, 1, 999, permission.AssetsView)
			Expect(errors.Is(err, permission.ErrPrincipalNotFound)).To(BeTrue())
		})

		It("rejects a malformed key", func() {
			err := service.GrantUserPermission(ctx, 1, alice.ID, "assets")
			Expect(errors.Is(err, permission.ErrInvalidKey)).To(BeTrue())
		})
	})

	Describe("UpsertPermission", func() {
		It("registers a new key and updates its description", func() {
			p, err := service.UpsertPermission(ctx, 1, permission.UpsertPermissionDTO{Key: "reports.exports.view", Description: "first"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Module).To(Equal("reports"))

			p, err = service.UpsertPermission(ctx, 1, permission.UpsertPermissionDTO{Key: "reports.exports.view", Description: "second"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Description).To(Equal("second"))
			Expect(publisher.recorded()).To(Equal([]string{"permission.upsert", "permission.upsert"}))
		})

		It("rejects a malformed key as a validation error", func() {
			_, err := service.UpsertPermission(ctx, 1, permission.UpsertPermissionDTO{Key: "reports"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})
})
